package location

import (
	"context"
	"errors"
	"time"
)

// Position is one device fix.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
}

// WatchOptions bound how fixes are acquired: request high accuracy, accept
// cached fixes up to MaximumAge, give up on a single fix after Timeout.
type WatchOptions struct {
	HighAccuracy bool
	MaximumAge   time.Duration
	Timeout      time.Duration
}

// DefaultWatchOptions mirrors the bounds the live feed is tuned for.
var DefaultWatchOptions = WatchOptions{
	HighAccuracy: true,
	MaximumAge:   10 * time.Second,
	Timeout:      20 * time.Second,
}

// PositionSource abstracts the device geolocation provider. Watch delivers
// fixes at arbitrary frequency until ctx is cancelled, then closes the
// channel.
type PositionSource interface {
	Current(ctx context.Context, opts WatchOptions) (Position, error)
	Watch(ctx context.Context, opts WatchOptions) (<-chan Position, error)
}

// ErrNoDevice reports that the service itself has no geolocation device.
var ErrNoDevice = errors.New("no device position source available")

// RemoteSource is the deployment source: fixes arrive from clients over the
// HTTP update endpoint, so Current and Watch both report ErrNoDevice. Starts
// must carry the client's fix, and the broadcast stays client-driven.
type RemoteSource struct{}

func (RemoteSource) Current(ctx context.Context, opts WatchOptions) (Position, error) {
	return Position{}, ErrNoDevice
}

func (RemoteSource) Watch(ctx context.Context, opts WatchOptions) (<-chan Position, error) {
	return nil, ErrNoDevice
}
