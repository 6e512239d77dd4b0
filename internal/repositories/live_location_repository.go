package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"geochat-service/internal/apperr"
	"geochat-service/internal/models"
)

const liveLocationColumns = `id, user_id, shared_with, latitude, longitude, accuracy, is_active, last_updated`

// LiveLocationRepository persists one-directional position broadcasts keyed
// by (sharer, recipient).
type LiveLocationRepository interface {
	Upsert(ctx context.Context, userID, sharedWith string, lat, lng float64, accuracy *float64) (models.LiveLocation, error)
	UpdatePosition(ctx context.Context, userID, sharedWith string, lat, lng float64, accuracy *float64) (models.LiveLocation, error)
	Deactivate(ctx context.Context, userID, sharedWith string) error
	IsActive(ctx context.Context, userID, sharedWith string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]models.LiveLocationView, error)
	DeactivateStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// LiveLocationRepo is the sqlx implementation of LiveLocationRepository.
type LiveLocationRepo struct {
	db *sqlx.DB
}

// NewLiveLocationRepo constructs a LiveLocationRepo.
func NewLiveLocationRepo(db *sqlx.DB) *LiveLocationRepo {
	return &LiveLocationRepo{db: db}
}

// Upsert starts (or restarts) a broadcast: insert on first use, reactivate
// and reposition on conflict with the (user_id, shared_with) key.
func (r *LiveLocationRepo) Upsert(ctx context.Context, userID, sharedWith string, lat, lng float64, accuracy *float64) (models.LiveLocation, error) {
	var loc models.LiveLocation
	err := r.db.GetContext(ctx, &loc,
		`INSERT INTO live_locations (id, user_id, shared_with, latitude, longitude, accuracy, is_active)
         VALUES ($1, $2, $3, $4, $5, $6, TRUE)
         ON CONFLICT (user_id, shared_with)
         DO UPDATE SET latitude = EXCLUDED.latitude,
                       longitude = EXCLUDED.longitude,
                       accuracy = EXCLUDED.accuracy,
                       is_active = TRUE,
                       last_updated = NOW()
         RETURNING `+liveLocationColumns,
		userID+"_"+sharedWith, userID, sharedWith, lat, lng, accuracy)
	if err != nil {
		return models.LiveLocation{}, storageErr("start live location", err)
	}
	return loc, nil
}

// UpdatePosition refreshes an active broadcast. NotFound when the pair has no
// active row: sharing must start before updates flow.
func (r *LiveLocationRepo) UpdatePosition(ctx context.Context, userID, sharedWith string, lat, lng float64, accuracy *float64) (models.LiveLocation, error) {
	var loc models.LiveLocation
	err := r.db.GetContext(ctx, &loc,
		`UPDATE live_locations
         SET latitude=$3, longitude=$4, accuracy=$5, last_updated=NOW()
         WHERE user_id=$1 AND shared_with=$2 AND is_active = TRUE
         RETURNING `+liveLocationColumns,
		userID, sharedWith, lat, lng, accuracy)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LiveLocation{}, apperr.NotFoundf("active live location not found")
	}
	if err != nil {
		return models.LiveLocation{}, storageErr("update live location", err)
	}
	return loc, nil
}

// Deactivate ends a broadcast. NotFound when the pair never shared.
func (r *LiveLocationRepo) Deactivate(ctx context.Context, userID, sharedWith string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE live_locations SET is_active = FALSE WHERE user_id=$1 AND shared_with=$2`,
		userID, sharedWith)
	if err != nil {
		return storageErr("stop live location", err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFoundf("live location not found")
	}
	return nil
}

// IsActive reports whether the pair has a running broadcast.
func (r *LiveLocationRepo) IsActive(ctx context.Context, userID, sharedWith string) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active,
		`SELECT EXISTS (
            SELECT 1 FROM live_locations
            WHERE user_id=$1 AND shared_with=$2 AND is_active = TRUE
         )`,
		userID, sharedWith)
	if err != nil {
		return false, storageErr("check live location", err)
	}
	return active, nil
}

// ListForUser returns every active broadcast the user takes part in, either
// end, newest first.
func (r *LiveLocationRepo) ListForUser(ctx context.Context, userID string) ([]models.LiveLocationView, error) {
	views := []models.LiveLocationView{}
	err := r.db.SelectContext(ctx, &views,
		`SELECT ll.id, ll.user_id, ll.shared_with, ll.latitude, ll.longitude,
                ll.accuracy, ll.is_active, ll.last_updated,
                u1.name AS user_name, u1.avatar AS user_avatar,
                u2.name AS shared_with_name, u2.avatar AS shared_with_avatar
         FROM live_locations ll
         JOIN users u1 ON u1.id = ll.user_id
         JOIN users u2 ON u2.id = ll.shared_with
         WHERE (ll.user_id = $1 OR ll.shared_with = $1) AND ll.is_active = TRUE
         ORDER BY ll.last_updated DESC`,
		userID)
	if err != nil {
		return nil, storageErr("list live locations", err)
	}
	return views, nil
}

// DeactivateStale ends broadcasts that stopped receiving fixes, e.g. when a
// client vanished without calling stop.
func (r *LiveLocationRepo) DeactivateStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE live_locations SET is_active = FALSE
         WHERE is_active = TRUE AND last_updated < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, storageErr("deactivate stale live locations", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}
