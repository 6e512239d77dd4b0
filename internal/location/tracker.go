package location

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"geochat-service/internal/apperr"
	"geochat-service/internal/models"
	"geochat-service/internal/observability"
	"geochat-service/internal/repositories"
)

var tracer = otel.Tracer("geochat-service/internal/location")

// persistTimeout bounds each fire-and-forget position write.
const persistTimeout = 5 * time.Second

// Tracker owns live broadcasts: it guards starts behind mutual consent,
// persists the initial fix, then keeps each broadcast fresh from a position
// watch until stopped.
type Tracker struct {
	users     repositories.UserRepository
	locations repositories.LiveLocationRepository
	source    PositionSource
	opts      WatchOptions

	mu      sync.Mutex
	watches map[string]*watch
}

type watch struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker constructs a Tracker over the given repositories and position
// source.
func NewTracker(users repositories.UserRepository, locations repositories.LiveLocationRepository, source PositionSource) *Tracker {
	return &Tracker{
		users:     users,
		locations: locations,
		source:    source,
		opts:      DefaultWatchOptions,
		watches:   make(map[string]*watch),
	}
}

// StartSharing begins broadcasting sharer -> recipient. It fails fast with
// PermissionDenied before touching the device or the store when mutual
// consent is missing. The initial fix comes from the caller when it already
// acquired one, otherwise from the position source; it is persisted with
// upsert semantics, then the continuous watch starts. A watch that cannot
// start is logged only; the broadcast row stays active and client-driven
// updates still flow.
func (t *Tracker) StartSharing(ctx context.Context, sharerID, recipientID string, initial *Position) (models.LiveLocation, error) {
	ctx, span := tracer.Start(ctx, "tracker.StartSharing", trace.WithAttributes(
		attribute.String("sharer.id", sharerID),
		attribute.String("recipient.id", recipientID),
	))
	defer span.End()

	if sharerID == recipientID {
		return models.LiveLocation{}, apperr.Validationf("cannot share location with yourself")
	}

	sharer, recipient, err := t.users.GetPair(ctx, sharerID, recipientID)
	if err != nil {
		return models.LiveLocation{}, err
	}
	if !ComputePermission(sharer, recipient).HasPermission {
		return models.LiveLocation{}, apperr.PermissionDeniedf("mutual location sharing permission required")
	}

	pos := initial
	if pos == nil {
		fix, err := t.source.Current(ctx, t.opts)
		if errors.Is(err, ErrNoDevice) {
			return models.LiveLocation{}, apperr.Validationf("latitude and longitude are required when no device position source is available")
		}
		if err != nil {
			return models.LiveLocation{}, apperr.Transient("could not acquire device position", err)
		}
		pos = &fix
	}

	loc, err := t.locations.Upsert(ctx, sharerID, recipientID, pos.Latitude, pos.Longitude, pos.Accuracy)
	if err != nil {
		return models.LiveLocation{}, err
	}

	t.startWatch(sharerID, recipientID)
	observability.IncLiveShareStarted()
	return loc, nil
}

// StopSharing cancels the watch first, synchronously and regardless of what
// the store says, so device tracking never outlives the session. Then it
// deactivates the broadcast row.
func (t *Tracker) StopSharing(ctx context.Context, sharerID, recipientID string) error {
	ctx, span := tracer.Start(ctx, "tracker.StopSharing", trace.WithAttributes(
		attribute.String("sharer.id", sharerID),
		attribute.String("recipient.id", recipientID),
	))
	defer span.End()

	t.cancelWatch(watchKey(sharerID, recipientID))

	if err := t.locations.Deactivate(ctx, sharerID, recipientID); err != nil {
		return err
	}
	observability.IncLiveShareStopped()
	return nil
}

// IsSharing reports whether a watch is currently running for the pair.
func (t *Tracker) IsSharing(sharerID, recipientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.watches[watchKey(sharerID, recipientID)]
	return ok
}

// Sharing reports whether the pair has a live broadcast, counting both
// device-backed watches and client-driven broadcasts that only exist as an
// active row in the store.
func (t *Tracker) Sharing(ctx context.Context, sharerID, recipientID string) (bool, error) {
	if t.IsSharing(sharerID, recipientID) {
		return true, nil
	}
	return t.locations.IsActive(ctx, sharerID, recipientID)
}

// StopAll cancels every running watch. Called on shutdown.
func (t *Tracker) StopAll() {
	t.mu.Lock()
	watches := make([]*watch, 0, len(t.watches))
	for key, w := range t.watches {
		watches = append(watches, w)
		delete(t.watches, key)
	}
	t.mu.Unlock()

	for _, w := range watches {
		w.cancel()
		<-w.done
	}
}

func (t *Tracker) startWatch(sharerID, recipientID string) {
	key := watchKey(sharerID, recipientID)
	t.cancelWatch(key)

	// The watch outlives the start request, so it hangs off its own context.
	watchCtx, cancel := context.WithCancel(context.Background())
	positions, err := t.source.Watch(watchCtx, t.opts)
	if err != nil {
		cancel()
		log.Printf("live location watch unavailable sharer=%s recipient=%s: %v", sharerID, recipientID, err)
		return
	}

	w := &watch{cancel: cancel, done: make(chan struct{})}
	t.mu.Lock()
	t.watches[key] = w
	t.mu.Unlock()

	go t.run(w, sharerID, recipientID, positions)
}

// run persists each incoming fix. Failures are logged and swallowed: a
// best-effort live feed should survive flaky persists rather than kill an
// otherwise healthy tracking session.
func (t *Tracker) run(w *watch, sharerID, recipientID string, positions <-chan Position) {
	defer close(w.done)

	for pos := range positions {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		_, err := t.locations.UpdatePosition(ctx, sharerID, recipientID, pos.Latitude, pos.Longitude, pos.Accuracy)
		cancel()
		if err != nil {
			observability.IncLiveUpdateError()
			log.Printf("live location update failed sharer=%s recipient=%s: %v", sharerID, recipientID, err)
			continue
		}
		observability.IncLiveUpdate()
	}
}

func (t *Tracker) cancelWatch(key string) {
	t.mu.Lock()
	w, ok := t.watches[key]
	if ok {
		delete(t.watches, key)
	}
	t.mu.Unlock()

	if ok {
		w.cancel()
		<-w.done
	}
}

func watchKey(sharerID, recipientID string) string {
	return sharerID + "|" + recipientID
}
