package models

import "time"

// Message is an append-only conversation entry. Exactly one payload kind
// (text, image reference, or coordinate pair) is meaningful per message,
// though the storage model allows text to ride alongside.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	Text           *string   `db:"text" json:"text,omitempty"`
	ImageURL       *string   `db:"image_url" json:"image_url,omitempty"`
	LocationLat    *float64  `db:"location_lat" json:"location_lat,omitempty"`
	LocationLng    *float64  `db:"location_lng" json:"location_lng,omitempty"`
	Read           bool      `db:"read" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MessageWithSender joins the sender's display fields for message listings.
type MessageWithSender struct {
	Message
	SenderName   string  `db:"sender_name" json:"sender_name"`
	SenderAvatar *string `db:"sender_avatar" json:"sender_avatar,omitempty"`
}

// MessagePage is one page of a conversation's history plus the total count
// the client needs for load-more logic.
type MessagePage struct {
	Messages []MessageWithSender `json:"messages"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}
