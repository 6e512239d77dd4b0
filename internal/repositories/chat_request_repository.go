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

const chatRequestColumns = `id, from_user_id, to_user_id, conversation_id, status, created_at`

const conversationColumns = `id, participants, status, created_by, last_message, last_message_at, unread_count, created_at`

// ChatRequestRepository drives the pending -> accepted/rejected state machine
// and keeps the request and its conversation in step transactionally.
type ChatRequestRepository interface {
	CreateWithConversation(ctx context.Context, fromUserID, toUserID, initialMessage string) (models.ChatRequest, models.Conversation, error)
	GetByID(ctx context.Context, id string) (models.ChatRequest, error)
	ListForRecipient(ctx context.Context, toUserID string, status models.ChatRequestStatus) ([]models.ChatRequest, error)
	Accept(ctx context.Context, id string) (models.ChatRequest, models.Conversation, error)
	Reject(ctx context.Context, id string) (models.ChatRequest, models.Conversation, error)
}

// ChatRequestRepo is the sqlx implementation of ChatRequestRepository.
type ChatRequestRepo struct {
	db *sqlx.DB
}

// NewChatRequestRepo constructs a ChatRequestRepo.
func NewChatRequestRepo(db *sqlx.DB) *ChatRequestRepo {
	return &ChatRequestRepo{db: db}
}

// CreateWithConversation atomically creates a pending conversation and its
// chat request. Conflict when the pair already has a pending or active
// conversation; a rejected pair may request again because its conversation is
// blocked. An optional initial message seeds the conversation preview and the
// recipient's unread counter.
func (r *ChatRequestRepo) CreateWithConversation(ctx context.Context, fromUserID, toUserID, initialMessage string) (models.ChatRequest, models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("create chat request", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS(
             SELECT 1 FROM conversations
             WHERE participants @> to_jsonb($1::text)
               AND participants @> to_jsonb($2::text)
               AND status IN ('pending', 'active'))`,
		fromUserID, toUserID)
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("create chat request", err)
	}
	if exists {
		return models.ChatRequest{}, models.Conversation{}, apperr.Conflictf("conversation between these users already exists")
	}

	var missing int
	err = tx.GetContext(ctx, &missing,
		`SELECT 2 - COUNT(*) FROM users WHERE id = ANY(ARRAY[$1::text, $2::text])`,
		fromUserID, toUserID)
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("create chat request", err)
	}
	if missing > 0 {
		return models.ChatRequest{}, models.Conversation{}, apperr.NotFoundf("one or both users not found")
	}

	unread := models.CountMap{fromUserID: 0, toUserID: 0}
	var lastMessage *string
	if initialMessage != "" {
		unread[toUserID] = 1
		lastMessage = &initialMessage
	}

	var conv models.Conversation
	err = tx.GetContext(ctx, &conv,
		`INSERT INTO conversations (id, participants, status, created_by, last_message, last_message_at, unread_count)
         VALUES ($1, $2, 'pending', $3, $4, CASE WHEN $4::text IS NULL THEN NULL ELSE NOW() END, $5)
         RETURNING `+conversationColumns,
		uuid.NewString(), models.StringList{fromUserID, toUserID}, fromUserID, lastMessage, unread)
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("create chat request", err)
	}

	var request models.ChatRequest
	err = tx.GetContext(ctx, &request,
		`INSERT INTO chat_requests (id, from_user_id, to_user_id, conversation_id, status)
         VALUES ($1, $2, $3, $4, 'pending')
         RETURNING `+chatRequestColumns,
		uuid.NewString(), fromUserID, toUserID, conv.ID)
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("create chat request", err)
	}

	if initialMessage != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, sender_id, text) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), conv.ID, fromUserID, initialMessage)
		if err != nil {
			return models.ChatRequest{}, models.Conversation{}, storageErr("create chat request", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("create chat request", err)
	}
	return request, conv, nil
}

// GetByID fetches a chat request.
func (r *ChatRequestRepo) GetByID(ctx context.Context, id string) (models.ChatRequest, error) {
	var request models.ChatRequest
	err := r.db.GetContext(ctx, &request,
		`SELECT `+chatRequestColumns+` FROM chat_requests WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRequest{}, apperr.NotFoundf("chat request not found")
	}
	if err != nil {
		return models.ChatRequest{}, storageErr("get chat request", err)
	}
	return request, nil
}

// ListForRecipient returns the recipient's requests with the given status,
// newest first.
func (r *ChatRequestRepo) ListForRecipient(ctx context.Context, toUserID string, status models.ChatRequestStatus) ([]models.ChatRequest, error) {
	var requests []models.ChatRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT `+chatRequestColumns+` FROM chat_requests
         WHERE to_user_id=$1 AND status=$2
         ORDER BY created_at DESC`,
		toUserID, status)
	if err != nil {
		return nil, storageErr("list chat requests", err)
	}
	return requests, nil
}

// Accept moves a pending request to accepted and its conversation to active
// in one transaction.
func (r *ChatRequestRepo) Accept(ctx context.Context, id string) (models.ChatRequest, models.Conversation, error) {
	return r.resolve(ctx, id, models.ChatRequestStatusAccepted, models.ConversationStatusActive)
}

// Reject moves a pending request to rejected and blocks its conversation so
// it neither lingers as pending nor shows in active lists.
func (r *ChatRequestRepo) Reject(ctx context.Context, id string) (models.ChatRequest, models.Conversation, error) {
	return r.resolve(ctx, id, models.ChatRequestStatusRejected, models.ConversationStatusBlocked)
}

func (r *ChatRequestRepo) resolve(ctx context.Context, id string, requestStatus models.ChatRequestStatus, convStatus models.ConversationStatus) (models.ChatRequest, models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("resolve chat request", err)
	}
	defer tx.Rollback()

	var request models.ChatRequest
	err = tx.GetContext(ctx, &request,
		`SELECT `+chatRequestColumns+` FROM chat_requests WHERE id=$1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRequest{}, models.Conversation{}, apperr.NotFoundf("chat request not found")
	}
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("resolve chat request", err)
	}
	if request.Status != models.ChatRequestStatusPending {
		return models.ChatRequest{}, models.Conversation{}, apperr.Conflictf("chat request already %s", request.Status)
	}

	err = tx.GetContext(ctx, &request,
		`UPDATE chat_requests SET status=$2 WHERE id=$1 RETURNING `+chatRequestColumns,
		id, requestStatus)
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("resolve chat request", err)
	}

	var conv models.Conversation
	err = tx.GetContext(ctx, &conv,
		`UPDATE conversations SET status=$2 WHERE id=$1 RETURNING `+conversationColumns,
		request.ConversationID, convStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRequest{}, models.Conversation{}, apperr.NotFoundf("conversation not found")
	}
	if err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("resolve chat request", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ChatRequest{}, models.Conversation{}, storageErr("resolve chat request", err)
	}
	return request, conv, nil
}
