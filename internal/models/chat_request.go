package models

import "time"

type ChatRequestStatus string

const (
	ChatRequestStatusPending  ChatRequestStatus = "pending"
	ChatRequestStatusAccepted ChatRequestStatus = "accepted"
	ChatRequestStatusRejected ChatRequestStatus = "rejected"
)

// ChatRequest gates the transition from stranger to active conversation.
// It is created atomically with a pending Conversation; accepted and rejected
// are terminal.
type ChatRequest struct {
	ID             string            `db:"id" json:"id"`
	FromUserID     string            `db:"from_user_id" json:"from_user_id"`
	ToUserID       string            `db:"to_user_id" json:"to_user_id"`
	ConversationID string            `db:"conversation_id" json:"conversation_id"`
	Status         ChatRequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}
