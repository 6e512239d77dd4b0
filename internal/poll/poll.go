// Package poll provides the scheduled-refresh primitive behind the client
// synchronization contract: a cancellable task that runs immediately and then
// at a fixed interval until its subscription ends.
package poll

import (
	"context"
	"time"
)

// Refresh intervals the read model is reconciled at. Consistency is only
// "reflects the latest committed write within one interval".
const (
	ConversationsInterval = 5 * time.Second
	MessagesInterval      = 2 * time.Second
	LiveLocationsInterval = 10 * time.Second
	ChatRequestsInterval  = 5 * time.Second
)

// Func is one refresh tick. It must respect ctx cancellation.
type Func func(ctx context.Context)

// Subscription is a running periodic refresh bound to a lifetime.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Every starts fn on its own goroutine: one immediate run, then one per
// interval, until Stop is called or ctx ends.
func Every(ctx context.Context, interval time.Duration, fn Func) *Subscription {
	runCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)

		fn(runCtx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn(runCtx)
			case <-runCtx.Done():
				return
			}
		}
	}()

	return sub
}

// Stop cancels the subscription and waits for the in-flight tick to finish.
func (s *Subscription) Stop() {
	s.cancel()
	<-s.done
}

// Done exposes completion for callers that select on it.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
