package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MemoryStream is an in-process Stream for tests and embedded use. It does
// not persist envelopes; subscribers only see what is published after they
// subscribe.
type MemoryStream struct {
	mu          sync.RWMutex
	subscribers []*memorySubscription
	closed      atomic.Bool
	subCounter  atomic.Uint64
}

// NewMemoryStream constructs an empty in-memory stream.
func NewMemoryStream() *MemoryStream {
	return &MemoryStream{}
}

func (s *MemoryStream) Publish(ctx context.Context, env Envelope) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if env.ID == "" {
		env.ID = NewEnvelopeID()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		if sub.closed.Load() {
			continue
		}
		// Non-blocking send so a slow subscriber cannot stall the publisher.
		select {
		case sub.envelopes <- env:
		default:
		}
	}
	return nil
}

func (s *MemoryStream) Subscribe(ctx context.Context, handler Handler) (Subscription, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if handler == nil {
		return nil, fmt.Errorf("events: nil handler")
	}

	sub := &memorySubscription{
		id:        s.subCounter.Add(1),
		envelopes: make(chan Envelope, 256),
		handler:   handler,
		stream:    s,
	}

	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()

	go sub.run(ctx)
	return sub, nil
}

func (s *MemoryStream) Close() error {
	if s.closed.Swap(true) {
		return ErrClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if !sub.closed.Swap(true) {
			close(sub.envelopes)
		}
	}
	s.subscribers = nil
	return nil
}

type memorySubscription struct {
	id        uint64
	envelopes chan Envelope
	handler   Handler
	stream    *MemoryStream
	closed    atomic.Bool
}

func (s *memorySubscription) Unsubscribe() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.stream.mu.Lock()
	defer s.stream.mu.Unlock()
	for i, sub := range s.stream.subscribers {
		if sub.id == s.id {
			s.stream.subscribers = append(s.stream.subscribers[:i], s.stream.subscribers[i+1:]...)
			break
		}
	}
	close(s.envelopes)
	return nil
}

func (s *memorySubscription) run(ctx context.Context) {
	for {
		select {
		case env, ok := <-s.envelopes:
			if !ok {
				return
			}
			s.handler(env)
		case <-ctx.Done():
			return
		}
	}
}
