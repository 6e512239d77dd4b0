// Package telemetry emits domain events over the message bus for downstream
// audit and analytics consumers.
package telemetry

import (
	"context"
	"log"
	"time"
)

// Event routing keys, one per domain transition.
const (
	EventChatRequestCreated  = "chat_request.created"
	EventChatRequestAccepted = "chat_request.accepted"
	EventChatRequestRejected = "chat_request.rejected"
	EventMessageSent         = "message.sent"
	EventShareRequested      = "location_sharing.requested"
	EventShareAccepted       = "location_sharing.accepted"
	EventShareRejected       = "location_sharing.rejected"
	EventLiveStarted         = "live_location.started"
	EventLiveStopped         = "live_location.stopped"
)

// Publisher is the message-bus surface the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Envelope is the wire shape for every emitted event.
type Envelope struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	OccurredAt    string         `json:"occurred_at"`
	Service       string         `json:"service"`
	Environment   string         `json:"environment"`
	RequestID     string         `json:"request_id,omitempty"`
	ActorID       string         `json:"actor_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
}

// Emitter builds envelopes and hands them to the publisher. A nil emitter or
// publisher is safe and silent.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
}

// NewEmitter constructs an Emitter.
func NewEmitter(publisher Publisher, service, environment string) *Emitter {
	return &Emitter{publisher: publisher, service: service, environment: environment}
}

// Emit publishes one event. Publish failures are logged only; events are
// best-effort and never fail the calling operation.
func (e *Emitter) Emit(ctx context.Context, eventType, requestID, actorID string, payload map[string]any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		ActorID:       actorID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, eventType, envelope); err != nil {
		log.Printf("event publish failed type=%s: %v", eventType, err)
	}
}
