package diagnostics

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/odvcencio/detour/pkg/logging"
	"github.com/odvcencio/detour/pkg/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The server binds to loopback; origin checks add nothing here.
		return true
	},
}

const streamWriteTimeout = 5 * time.Second

// handleEvents streams telemetry events to a websocket client. The optional
// "type" query parameter keeps only events whose type starts with the given
// prefix, e.g. type=visit.request.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "event hub unavailable", http.StatusServiceUnavailable)
		return
	}

	typePrefix := r.URL.Query().Get("type")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	// Drain client frames so close handshakes are noticed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	burst := int(s.cfg.EventRateLimit)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(s.cfg.EventRateLimit), burst)

	for {
		select {
		case <-clientGone:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !matchesType(event, typePrefix) {
				continue
			}
			// Shed load rather than letting a slow client back up the hub.
			if !limiter.Allow() {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				if s.logger != nil {
					s.logger.Debug(logging.CategoryEvents, "stream_write_failed", err.Error(), nil)
				}
				return
			}
		}
	}
}

func matchesType(event telemetry.Event, prefix string) bool {
	if prefix == "" {
		return true
	}
	return strings.HasPrefix(string(event.Type), prefix)
}
