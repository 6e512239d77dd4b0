package models

import "time"

type ConversationStatus string

const (
	ConversationStatusPending ConversationStatus = "pending"
	ConversationStatusActive  ConversationStatus = "active"
	ConversationStatusBlocked ConversationStatus = "blocked"
)

// Conversation is a two-party thread. LastMessage/LastMessageAt are
// denormalized for list views; UnreadCount keys are always a subset of
// Participants.
type Conversation struct {
	ID            string             `db:"id" json:"id"`
	Participants  StringList         `db:"participants" json:"participants"`
	Status        ConversationStatus `db:"status" json:"status"`
	CreatedBy     string             `db:"created_by" json:"created_by"`
	LastMessage   *string            `db:"last_message" json:"last_message,omitempty"`
	LastMessageAt *time.Time         `db:"last_message_at" json:"last_message_at,omitempty"`
	UnreadCount   CountMap           `db:"unread_count" json:"unread_count"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
}

// ConversationSummary is a conversation enriched with the participants'
// profile snapshots for list views.
type ConversationSummary struct {
	Conversation
	ParticipantsData []UserSnapshot `json:"participants_data"`
}
