package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is prepended to the event type to form the NATS
// subject, e.g. "detour.visit.completed".
const DefaultSubjectPrefix = "detour"

// NATSConfig configures a NATS-backed stream.
type NATSConfig struct {
	URL           string
	Name          string
	SubjectPrefix string
	Timeout       time.Duration
}

func (c NATSConfig) withDefaults() NATSConfig {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Name == "" {
		c.Name = "detour"
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// NATSStream publishes visit envelopes to NATS subjects derived from the
// event type and fans inbound envelopes out to subscribers.
type NATSStream struct {
	conn    *nats.Conn
	prefix  string
	ownConn bool
}

// NewNATSStream connects to NATS and returns a stream over that connection.
func NewNATSStream(cfg NATSConfig) (*NATSStream, error) {
	cfg = cfg.withDefaults()

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(cfg.Timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSStream{conn: conn, prefix: cfg.SubjectPrefix, ownConn: true}, nil
}

// NewNATSStreamFromConn wraps an existing connection. The caller keeps
// ownership of the connection; Close will not drain it.
func NewNATSStreamFromConn(conn *nats.Conn, subjectPrefix string) *NATSStream {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	return &NATSStream{conn: conn, prefix: subjectPrefix}
}

func (s *NATSStream) Publish(ctx context.Context, env Envelope) error {
	if s.conn == nil || s.conn.IsClosed() {
		return ErrClosed
	}
	if env.ID == "" {
		env.ID = NewEnvelopeID()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	subject := s.prefix + "." + env.Type
	if err := s.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers every envelope under the stream's subject prefix.
// Envelopes that fail to decode are skipped.
func (s *NATSStream) Subscribe(ctx context.Context, handler Handler) (Subscription, error) {
	if s.conn == nil || s.conn.IsClosed() {
		return nil, ErrClosed
	}
	if handler == nil {
		return nil, fmt.Errorf("events: nil handler")
	}

	sub, err := s.conn.Subscribe(s.prefix+".>", func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			return
		}
		handler(env)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s.>: %w", s.prefix, err)
	}
	return natsSubscription{sub: sub}, nil
}

func (s *NATSStream) Close() error {
	if s.conn == nil {
		return nil
	}
	if s.ownConn {
		if err := s.conn.Drain(); err != nil {
			s.conn.Close()
			return err
		}
	}
	return nil
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}
