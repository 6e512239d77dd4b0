package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"geochat-service/internal/apperr"
	"geochat-service/internal/models"
)

const messageColumns = `id, conversation_id, sender_id, text, image_url, location_lat, location_lng, read, created_at`

// SendMessageParams carries exactly one payload kind; the handler validates
// that before it reaches the repository.
type SendMessageParams struct {
	ConversationID string
	SenderID       string
	Text           *string
	ImageURL       *string
	LocationLat    *float64
	LocationLng    *float64
}

// MessageRepository appends messages and propagates read receipts.
type MessageRepository interface {
	Send(ctx context.Context, params SendMessageParams) (models.Message, error)
	ListPage(ctx context.Context, conversationID string, limit, offset int) (models.MessagePage, error)
	MarkMessagesRead(ctx context.Context, conversationID, userID string) error
}

// MessageRepo is the sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Send inserts the message, refreshes the conversation preview and bumps the
// recipient's unread counter, all in one transaction. The recipient is the
// participant that is not the sender; the increment is a single JSONB
// statement so concurrent sends cannot lose updates.
func (r *MessageRepo) Send(ctx context.Context, params SendMessageParams) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, storageErr("send message", err)
	}
	defer tx.Rollback()

	var participants models.StringList
	err = tx.GetContext(ctx, &participants,
		`SELECT participants FROM conversations WHERE id=$1`, params.ConversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, apperr.NotFoundf("conversation not found")
	}
	if err != nil {
		return models.Message{}, storageErr("send message", err)
	}

	recipient, err := participants.Other(params.SenderID)
	if err != nil {
		return models.Message{}, apperr.Validationf("sender is not a participant of this conversation")
	}

	var msg models.Message
	err = tx.GetContext(ctx, &msg,
		`INSERT INTO messages (id, conversation_id, sender_id, text, image_url, location_lat, location_lng)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING `+messageColumns,
		uuid.NewString(), params.ConversationID, params.SenderID,
		params.Text, params.ImageURL, params.LocationLat, params.LocationLng)
	if err != nil {
		return models.Message{}, storageErr("send message", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations
         SET last_message = $2,
             last_message_at = NOW(),
             unread_count = jsonb_set(unread_count, ARRAY[$3::text],
                 to_jsonb(COALESCE((unread_count->>$3)::int, 0) + 1))
         WHERE id = $1`,
		params.ConversationID, preview(params), recipient)
	if err != nil {
		return models.Message{}, storageErr("send message", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, storageErr("send message", err)
	}
	return msg, nil
}

// ListPage returns one ascending page of the conversation's history plus the
// total count for load-more logic.
func (r *MessageRepo) ListPage(ctx context.Context, conversationID string, limit, offset int) (models.MessagePage, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages := []models.MessageWithSender{}
	err := r.db.SelectContext(ctx, &messages,
		`SELECT m.id, m.conversation_id, m.sender_id, m.text, m.image_url,
                m.location_lat, m.location_lng, m.read, m.created_at,
                u.name AS sender_name, u.avatar AS sender_avatar
         FROM messages m
         JOIN users u ON u.id = m.sender_id
         WHERE m.conversation_id = $1
         ORDER BY m.created_at ASC
         LIMIT $2 OFFSET $3`,
		conversationID, limit, offset)
	if err != nil {
		return models.MessagePage{}, storageErr("list messages", err)
	}

	var total int
	err = r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM messages WHERE conversation_id=$1`, conversationID)
	if err != nil {
		return models.MessagePage{}, storageErr("count messages", err)
	}

	return models.MessagePage{Messages: messages, Total: total, Limit: limit, Offset: offset}, nil
}

// MarkMessagesRead flags every unread message authored by the other
// participant. The caller's own messages are never touched. Idempotent.
func (r *MessageRepo) MarkMessagesRead(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE
         WHERE conversation_id = $1 AND sender_id <> $2 AND read = FALSE`,
		conversationID, userID)
	if err != nil {
		return storageErr("mark messages read", err)
	}
	return nil
}

func preview(params SendMessageParams) string {
	switch {
	case params.Text != nil && *params.Text != "":
		return *params.Text
	case params.ImageURL != nil:
		return "Photo"
	default:
		return "Location"
	}
}
