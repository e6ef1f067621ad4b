package wsbridge

import (
	"time"

	"github.com/odvcencio/detour/pkg/logging"
)

// Options configures a bridge connection.
type Options struct {
	// HandshakeTimeout bounds the websocket dial handshake.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each outbound command write.
	WriteTimeout time.Duration

	// Logger receives surface-level diagnostics. Optional.
	Logger *logging.Logger
}

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = defaultWriteTimeout
	}
	return o
}
