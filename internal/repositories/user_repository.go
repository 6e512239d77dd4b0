package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"geochat-service/internal/apperr"
	"geochat-service/internal/models"
)

const userColumns = `id, name, email, avatar, bio, lat, lng, is_online, last_seen, pin,
    location_sharing_requests, location_sharing_with, created_at`

// publicUserColumns is what other users may see: no pin, email or sharing
// sets. Search and discovery queries select these only.
const publicUserColumns = `id, name, avatar, bio, lat, lng, is_online, last_seen, created_at`

// pinAttempts bounds retries when a freshly generated PIN collides.
const pinAttempts = 5

// UserRepository abstracts user persistence, including the two JSONB sets
// that back location-sharing consent.
type UserRepository interface {
	Create(ctx context.Context, params CreateUserParams) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetPair(ctx context.Context, firstID, secondID string) (models.User, models.User, error)
	Update(ctx context.Context, id string, params UpdateUserParams) (models.User, error)
	SearchByPIN(ctx context.Context, pin, excludeID string) (models.PublicProfile, error)
	List(ctx context.Context, params ListUsersParams) ([]models.PublicProfile, error)
	AppendSharingRequest(ctx context.Context, targetID, requesterID string) error
	RemoveSharingRequest(ctx context.Context, targetID, requesterID string) error
	AcceptSharing(ctx context.Context, accepterID, requesterID string) error
	SetPresence(ctx context.Context, id string, online bool) error
	MarkStaleOffline(ctx context.Context, olderThan time.Duration) (int64, error)
}

type CreateUserParams struct {
	Name   string
	Email  string
	Avatar *string
	Bio    *string
	Lat    *float64
	Lng    *float64
}

// UpdateUserParams applies only the fields that are set. Unknown fields never
// reach this struct: the request schema rejects them up front.
type UpdateUserParams struct {
	Name     *string
	Email    *string
	Avatar   *string
	Bio      *string
	Lat      *float64
	Lng      *float64
	IsOnline *bool
}

type ListUsersParams struct {
	OnlineOnly bool
	Lat        *float64
	Lng        *float64
	RadiusKm   float64
}

// UserRepo is the sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a profile with a fresh unique 6-digit PIN, retrying a few
// times when the generated PIN collides.
func (r *UserRepo) Create(ctx context.Context, params CreateUserParams) (models.User, error) {
	for attempt := 0; attempt < pinAttempts; attempt++ {
		var user models.User
		err := r.db.GetContext(ctx, &user,
			`INSERT INTO users (id, name, email, avatar, bio, lat, lng, pin, is_online, last_seen)
             VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, NOW())
             RETURNING `+userColumns,
			uuid.NewString(), params.Name, params.Email, params.Avatar, params.Bio,
			params.Lat, params.Lng, generatePIN())
		if err == nil {
			return user, nil
		}
		if isUniqueViolation(err) {
			if uniqueConstraint(err) == "users_pin_key" {
				continue
			}
			return models.User{}, apperr.Conflictf("user with this email already exists")
		}
		return models.User{}, storageErr("create user", err)
	}
	return models.User{}, apperr.Conflictf("could not allocate a unique PIN")
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFoundf("user not found")
	}
	if err != nil {
		return models.User{}, storageErr("get user", err)
	}
	return user, nil
}

// GetPair loads two users in one round trip, in the order requested.
func (r *UserRepo) GetPair(ctx context.Context, firstID, secondID string) (models.User, models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array([]string{firstID, secondID}))
	if err != nil {
		return models.User{}, models.User{}, storageErr("get user pair", err)
	}
	if len(users) != 2 {
		return models.User{}, models.User{}, apperr.NotFoundf("one or both users not found")
	}
	if users[0].ID == firstID {
		return users[0], users[1], nil
	}
	return users[1], users[0], nil
}

// Update applies the provided profile fields and returns the updated row.
func (r *UserRepo) Update(ctx context.Context, id string, params UpdateUserParams) (models.User, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 8)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Avatar != nil {
		add("avatar", *params.Avatar)
	}
	if params.Bio != nil {
		add("bio", *params.Bio)
	}
	if params.Lat != nil {
		add("lat", *params.Lat)
	}
	if params.Lng != nil {
		add("lng", *params.Lng)
	}
	if params.IsOnline != nil {
		add("is_online", *params.IsOnline)
		sets = append(sets, "last_seen = NOW()")
	}
	if len(sets) == 0 {
		return models.User{}, apperr.Validationf("no fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		joinSets(sets), len(args), userColumns)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperr.NotFoundf("user not found")
	}
	if isUniqueViolation(err) {
		return models.User{}, apperr.Conflictf("user with this email already exists")
	}
	if err != nil {
		return models.User{}, storageErr("update user", err)
	}
	return user, nil
}

// SearchByPIN resolves an exact 6-digit PIN to at most one profile, never the
// caller's own.
func (r *UserRepo) SearchByPIN(ctx context.Context, pin, excludeID string) (models.PublicProfile, error) {
	var user models.PublicProfile
	err := r.db.GetContext(ctx, &user,
		`SELECT `+publicUserColumns+` FROM users WHERE pin=$1 AND id<>$2`, pin, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PublicProfile{}, apperr.NotFoundf("no user with this PIN")
	}
	if err != nil {
		return models.PublicProfile{}, storageErr("search by pin", err)
	}
	return user, nil
}

// List returns users for the map view, optionally filtered by online flag and
// haversine radius around a point.
func (r *UserRepo) List(ctx context.Context, params ListUsersParams) ([]models.PublicProfile, error) {
	query := `SELECT ` + publicUserColumns + ` FROM users`
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if params.OnlineOnly {
		conditions = append(conditions, "is_online = TRUE")
	}
	if params.Lat != nil && params.Lng != nil {
		radius := params.RadiusKm
		if radius <= 0 {
			radius = 10
		}
		args = append(args, *params.Lat, *params.Lng, radius)
		conditions = append(conditions, fmt.Sprintf(
			`lat IS NOT NULL AND lng IS NOT NULL AND
             (6371 * acos(least(1.0,
                 cos(radians($%d)) * cos(radians(lat)) * cos(radians(lng) - radians($%d)) +
                 sin(radians($%d)) * sin(radians(lat))))) < $%d`,
			len(args)-2, len(args)-1, len(args)-2, len(args)))
	}

	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY name"

	var users []models.PublicProfile
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, storageErr("list users", err)
	}
	return users, nil
}

// AppendSharingRequest records requesterID in the target's incoming set with
// a single append-if-absent statement, so concurrent requests cannot drop
// each other. Idempotent when the request is already present.
func (r *UserRepo) AppendSharingRequest(ctx context.Context, targetID, requesterID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
         SET location_sharing_requests = location_sharing_requests || to_jsonb($2::text)
         WHERE id = $1 AND NOT location_sharing_requests @> to_jsonb($2::text)`,
		targetID, requesterID)
	if err != nil {
		return storageErr("append sharing request", err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return r.ensureUserExists(ctx, targetID)
	}
	return nil
}

// RemoveSharingRequest drops requesterID from the target's incoming set.
// Idempotent.
func (r *UserRepo) RemoveSharingRequest(ctx context.Context, targetID, requesterID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET location_sharing_requests = location_sharing_requests - $2::text
         WHERE id = $1`,
		targetID, requesterID)
	if err != nil {
		return storageErr("remove sharing request", err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

// AcceptSharing completes the consent handshake in one transaction: the
// request leaves the accepter's incoming set and both users gain each other
// in location_sharing_with. Partial failure rolls everything back so the
// symmetric-membership invariant holds.
func (r *UserRepo) AcceptSharing(ctx context.Context, accepterID, requesterID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("accept sharing", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET location_sharing_requests = location_sharing_requests - $2::text
         WHERE id = $1`,
		accepterID, requesterID)
	if err != nil {
		return storageErr("accept sharing", err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFoundf("user not found")
	}

	for _, pair := range [][2]string{{accepterID, requesterID}, {requesterID, accepterID}} {
		res, err := tx.ExecContext(ctx,
			`UPDATE users
             SET location_sharing_with = location_sharing_with || to_jsonb($2::text)
             WHERE id = $1 AND NOT location_sharing_with @> to_jsonb($2::text)`,
			pair[0], pair[1])
		if err != nil {
			return storageErr("accept sharing", err)
		}
		if count, err := res.RowsAffected(); err == nil && count == 0 {
			// Already mutual or the peer is missing; verify the latter.
			var exists bool
			if err := tx.GetContext(ctx, &exists,
				`SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, pair[0]); err != nil {
				return storageErr("accept sharing", err)
			}
			if !exists {
				return apperr.NotFoundf("user not found")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("accept sharing", err)
	}
	return nil
}

// SetPresence flips the online flag and touches last_seen.
func (r *UserRepo) SetPresence(ctx context.Context, id string, online bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_online=$2, last_seen=NOW() WHERE id=$1`, id, online)
	if err != nil {
		return storageErr("set presence", err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

// MarkStaleOffline clears the online flag for users whose last_seen is older
// than the cutoff. Used by the presence sweep job.
func (r *UserRepo) MarkStaleOffline(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_online=FALSE
         WHERE is_online = TRUE AND (last_seen IS NULL OR last_seen < NOW() - $1::interval)`,
		fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, storageErr("mark stale offline", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}

func (r *UserRepo) ensureUserExists(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, id); err != nil {
		return storageErr("check user", err)
	}
	if !exists {
		return apperr.NotFoundf("user not found")
	}
	return nil
}

func generatePIN() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
