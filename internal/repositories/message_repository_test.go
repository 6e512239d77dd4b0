package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geochat-service/internal/apperr"
)

func TestSendMessageIncrementsRecipientUnreadOnly(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewMessageRepo(db)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery(regexp.QuoteMeta(`SELECT participants FROM conversations WHERE id=$1`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"participants"}).AddRow([]byte(`["u1","u2"]`)))
	mockDB.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages`)).
		WithArgs(sqlmock.AnyArg(), "c1", "u1", "hola", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversation_id", "sender_id", "text", "image_url",
			"location_lat", "location_lng", "read", "created_at",
		}).AddRow("m1", "c1", "u1", "hola", nil, nil, nil, false, time.Now()))
	// The unread bump must target the recipient, never the sender.
	mockDB.ExpectExec(regexp.QuoteMeta(`jsonb_set(unread_count, ARRAY[$3::text]`)).
		WithArgs("c1", "hola", "u2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	text := "hola"
	msg, err := repo.Send(context.Background(), SendMessageParams{
		ConversationID: "c1",
		SenderID:       "u1",
		Text:           &text,
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSendMessageLocationPreview(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewMessageRepo(db)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery(regexp.QuoteMeta(`SELECT participants FROM conversations WHERE id=$1`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"participants"}).AddRow([]byte(`["u1","u2"]`)))
	mockDB.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages`)).
		WithArgs(sqlmock.AnyArg(), "c1", "u2", nil, nil, 51.5, -0.1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "conversation_id", "sender_id", "text", "image_url",
			"location_lat", "location_lng", "read", "created_at",
		}).AddRow("m2", "c1", "u2", nil, nil, 51.5, -0.1, false, time.Now()))
	mockDB.ExpectExec(regexp.QuoteMeta(`jsonb_set(unread_count, ARRAY[$3::text]`)).
		WithArgs("c1", "Location", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	lat, lng := 51.5, -0.1
	_, err := repo.Send(context.Background(), SendMessageParams{
		ConversationID: "c1",
		SenderID:       "u2",
		LocationLat:    &lat,
		LocationLng:    &lng,
	})
	require.NoError(t, err)
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewMessageRepo(db)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery(regexp.QuoteMeta(`SELECT participants FROM conversations WHERE id=$1`)).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"participants"}).AddRow([]byte(`["u2","u3"]`)))
	mockDB.ExpectRollback()

	text := "hola"
	_, err := repo.Send(context.Background(), SendMessageParams{
		ConversationID: "c1",
		SenderID:       "u1",
		Text:           &text,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	require.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSendMessageConversationMissing(t *testing.T) {
	db, mockDB := setupMockDB(t)
	repo := NewMessageRepo(db)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery(regexp.QuoteMeta(`SELECT participants FROM conversations WHERE id=$1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"participants"}))
	mockDB.ExpectRollback()

	text := "hola"
	_, err := repo.Send(context.Background(), SendMessageParams{
		ConversationID: "missing",
		SenderID:       "u1",
		Text:           &text,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	require.NoError(t, mockDB.ExpectationsWereMet())
}
