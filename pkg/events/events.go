// Package events externalizes visit lifecycle events so processes beyond
// the navigating app can observe navigation. The default implementation
// publishes to NATS; MemoryStream serves tests and embedded use.
package events

import (
	"context"
	cryptorand "crypto/rand"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/detour/pkg/telemetry"
)

var (
	// ErrClosed is returned when operating on a closed stream or subscription.
	ErrClosed = errors.New("events: stream closed")
)

// Envelope is the externalized form of one visit lifecycle event.
type Envelope struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	VisitID   string         `json:"visit_id,omitempty"`
	Location  string         `json:"location,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Handler processes a received envelope.
type Handler func(env Envelope)

// Stream carries visit lifecycle envelopes between processes.
// Implementations must be safe for concurrent use.
type Stream interface {
	// Publish sends an envelope. An empty ID is filled in.
	Publish(ctx context.Context, env Envelope) error

	// Subscribe registers a handler for future envelopes.
	Subscribe(ctx context.Context, handler Handler) (Subscription, error)

	// Close shuts down the stream and all subscriptions.
	Close() error
}

// Subscription represents an active subscription that can be cancelled.
type Subscription interface {
	Unsubscribe() error
}

var envelopeEntropy = ulid.Monotonic(cryptorand.Reader, 0)

// NewEnvelopeID returns a unique, time-ordered envelope id.
func NewEnvelopeID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), envelopeEntropy).String()
}

// FromTelemetry converts a hub event into a stream envelope.
func FromTelemetry(event telemetry.Event) Envelope {
	return Envelope{
		ID:        NewEnvelopeID(),
		Type:      string(event.Type),
		VisitID:   event.VisitID,
		Location:  event.Location,
		Timestamp: event.Timestamp,
		Data:      event.Data,
	}
}

// Forward subscribes to the hub and pumps its events into a stream until
// ctx is done or the hub closes. The subscription is created inside
// Forward; events published before it returns from hub.Subscribe are not
// seen. Callers that must not miss early events should subscribe
// themselves and use ForwardFrom.
func Forward(ctx context.Context, hub *telemetry.Hub, stream Stream) error {
	if hub == nil || stream == nil {
		return nil
	}
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	return ForwardFrom(ctx, ch, stream)
}

// ForwardFrom pumps an already-subscribed event channel into a stream
// until ctx is done or the channel closes. Publish failures are counted
// and reported once the pump stops; they never stop it.
func ForwardFrom(ctx context.Context, ch <-chan telemetry.Event, stream Stream) error {
	if ch == nil || stream == nil {
		return nil
	}

	var lastErr error
	dropped := 0
	for {
		select {
		case <-ctx.Done():
			if dropped > 0 {
				return errors.Join(ctx.Err(), lastErr)
			}
			return ctx.Err()
		case event, ok := <-ch:
			if !ok {
				return lastErr
			}
			if err := stream.Publish(ctx, FromTelemetry(event)); err != nil {
				dropped++
				lastErr = err
			}
		}
	}
}
