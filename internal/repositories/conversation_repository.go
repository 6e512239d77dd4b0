package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"geochat-service/internal/apperr"
	"geochat-service/internal/models"
)

// ConversationRepository reads conversation state and maintains per-user
// unread counters.
type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (models.Conversation, error)
	ListForUser(ctx context.Context, userID string, status models.ConversationStatus) ([]models.ConversationSummary, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
}

// ConversationRepo is the sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// GetByID fetches a conversation.
func (r *ConversationRepo) GetByID(ctx context.Context, id string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, apperr.NotFoundf("conversation not found")
	}
	if err != nil {
		return models.Conversation{}, storageErr("get conversation", err)
	}
	return conv, nil
}

// ListForUser returns the user's conversations, optionally filtered by
// status, ordered by last activity with never-messaged threads last. Each row
// carries participant profile snapshots resolved at read time.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID string, status models.ConversationStatus) ([]models.ConversationSummary, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
        WHERE participants @> to_jsonb($1::text)`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY last_message_at DESC NULLS LAST`

	var convs []models.Conversation
	if err := r.db.SelectContext(ctx, &convs, query, args...); err != nil {
		return nil, storageErr("list conversations", err)
	}

	snapshots, err := r.participantSnapshots(ctx, convs)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := models.ConversationSummary{Conversation: conv}
		for _, id := range conv.Participants {
			if snap, ok := snapshots[id]; ok {
				summary.ParticipantsData = append(summary.ParticipantsData, snap)
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// MarkRead zeroes the user's unread counter. Idempotent.
func (r *ConversationRepo) MarkRead(ctx context.Context, conversationID, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE conversations
         SET unread_count = jsonb_set(unread_count, ARRAY[$2::text], '0'::jsonb)
         WHERE id = $1 AND participants @> to_jsonb($2::text)`,
		conversationID, userID)
	if err != nil {
		return storageErr("mark conversation read", err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFoundf("conversation not found")
	}
	return nil
}

func (r *ConversationRepo) participantSnapshots(ctx context.Context, convs []models.Conversation) (map[string]models.UserSnapshot, error) {
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(convs)*2)
	for _, conv := range convs {
		for _, id := range conv.Participants {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return map[string]models.UserSnapshot{}, nil
	}

	var rows []models.UserSnapshot
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, avatar, is_online FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, storageErr("load participants", err)
	}

	snapshots := make(map[string]models.UserSnapshot, len(rows))
	for _, row := range rows {
		snapshots[row.ID] = row
	}
	return snapshots, nil
}
