// Package wsbridge implements visit.Surface over a websocket connection
// to a remote rendering surface process.
//
// All inbound events are dispatched on one goroutine, the surface's
// dispatch loop, which is the single execution context the visit package
// requires. Use Post to run controller code (constructing visits, calling
// Start or Cancel) on that same goroutine.
package wsbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/odvcencio/detour/pkg/logging"
	"github.com/odvcencio/detour/pkg/visit"
)

var (
	ErrClosed = errors.New("wsbridge: surface closed")
)

// Surface drives a remote rendering surface over a websocket.
type Surface struct {
	conn   *websocket.Conn
	opts   Options
	logger *logging.Logger

	writeMu sync.Mutex

	// Handler slots. Only touched on the dispatch goroutine.
	nav    visit.NavigationHandler
	bridge visit.BridgeHandler

	nextToken atomic.Uint64

	funcs    chan func()
	incoming chan envelope
	done     chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
}

// Dial connects to a remote surface endpoint and starts the read and
// dispatch loops.
func Dial(ctx context.Context, endpoint string, opts Options) (*Surface, error) {
	opts = opts.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	dialer := websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("dial surface %s: %w", endpoint, err)
	}

	s := &Surface{
		conn:     conn,
		opts:     opts,
		logger:   opts.Logger,
		funcs:    make(chan func(), 16),
		incoming: make(chan envelope, 64),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	go s.dispatchLoop()
	return s, nil
}

// Post schedules fn on the dispatch goroutine. Returns ErrClosed if the
// surface is no longer running.
func (s *Surface) Post(fn func()) error {
	if fn == nil {
		return nil
	}
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.funcs <- fn:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Done is closed once the connection is gone and no further callbacks will
// be delivered.
func (s *Surface) Done() <-chan struct{} {
	return s.done
}

// Close tears down the connection and stops both loops.
func (s *Surface) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

func (s *Surface) readLoop() {
	defer close(s.incoming)
	for {
		var env envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if !s.closed.Load() && s.logger != nil {
				s.logger.Warn(logging.CategorySurface, "read_failed", err.Error(), nil)
			}
			return
		}
		if env.Kind != kindEvent {
			continue
		}
		s.incoming <- env
	}
}

func (s *Surface) dispatchLoop() {
	defer close(s.done)
	for {
		select {
		case fn := <-s.funcs:
			fn()
		case env, ok := <-s.incoming:
			if !ok {
				return
			}
			s.dispatch(env)
		}
	}
}

func (s *Surface) dispatch(env envelope) {
	switch env.Name {
	case eventDecideNavigation:
		policy := visit.PolicyCancel
		if s.nav != nil {
			policy = s.nav.DecideNavigation(visit.NavigationDecision{
				Location:      env.Location,
				LinkActivated: env.LinkActivated,
			})
		}
		s.send(envelope{Kind: kindCommand, ID: env.ID, Name: commandDecision, Policy: string(policy)})

	case eventDecideResponse:
		policy := visit.PolicyCancel
		if s.nav != nil {
			policy = s.nav.DecideResponse(visit.Response{
				URL:        env.Location,
				StatusCode: env.StatusCode,
				HTTP:       env.HTTP,
			})
		}
		s.send(envelope{Kind: kindCommand, ID: env.ID, Name: commandDecision, Policy: string(policy)})

	case eventNavigationFailed:
		if s.nav != nil {
			s.nav.NavigationDidFail(visit.Token(env.Token), causeError(env.Cause))
		}
	case eventProvisionalFailed:
		if s.nav != nil {
			s.nav.ProvisionalNavigationDidFail(visit.Token(env.Token), causeError(env.Cause))
		}
	case eventNavigationFinished:
		if s.nav != nil {
			s.nav.NavigationDidFinish(visit.Token(env.Token))
		}
	case eventPageLoaded:
		if s.nav != nil {
			s.nav.PageDidLoad(env.RestorationIdentifier)
		}
	case eventServerRedirect:
		if s.nav != nil {
			s.nav.ServerDidRedirect(visit.Token(env.Token), env.Location)
		}

	case eventVisitStarted:
		if s.bridge != nil {
			s.bridge.BridgeVisitStarted(env.Identifier, env.HasCachedSnapshot)
		}
	case eventRequestStarted:
		if s.bridge != nil {
			s.bridge.BridgeRequestStarted(env.Identifier)
		}
	case eventRequestCompleted:
		if s.bridge != nil {
			s.bridge.BridgeRequestCompleted(env.Identifier)
		}
	case eventRequestFailed:
		if s.bridge != nil {
			s.bridge.BridgeRequestFailed(env.Identifier, env.StatusCode)
		}
	case eventRequestFinished:
		if s.bridge != nil {
			s.bridge.BridgeRequestFinished(env.Identifier)
		}
	case eventRendered:
		if s.bridge != nil {
			s.bridge.BridgeRendered(env.Identifier)
		}
	case eventVisitCompleted:
		if s.bridge != nil {
			s.bridge.BridgeVisitCompleted(env.Identifier, env.RestorationIdentifier)
		}

	default:
		if s.logger != nil {
			s.logger.Debug(logging.CategorySurface, "unknown_event", env.Name, nil)
		}
	}
}

// send writes a command. Commands are fire-and-forget; a write failure is
// logged and otherwise surfaces only through the connection dying.
func (s *Surface) send(env envelope) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	if err := s.conn.WriteJSON(env); err != nil {
		if !s.closed.Load() && s.logger != nil {
			s.logger.Warn(logging.CategorySurface, "write_failed", err.Error(), map[string]any{
				"command": env.Name,
			})
		}
	}
}

// Load implements visit.Surface.
func (s *Surface) Load(req visit.Request) visit.Token {
	token := s.nextToken.Add(1)
	s.send(envelope{
		Kind:     kindCommand,
		Name:     commandLoad,
		Token:    token,
		Location: req.URL,
		Referer:  req.Referer,
	})
	return visit.Token(token)
}

// StopLoading implements visit.Surface.
func (s *Surface) StopLoading() {
	s.send(envelope{Kind: kindCommand, Name: commandStop})
}

// NavigationHandler implements visit.Surface.
func (s *Surface) NavigationHandler() visit.NavigationHandler { return s.nav }

// SetNavigationHandler implements visit.Surface.
func (s *Surface) SetNavigationHandler(handler visit.NavigationHandler) { s.nav = handler }

// BridgeHandler implements visit.Surface.
func (s *Surface) BridgeHandler() visit.BridgeHandler { return s.bridge }

// SetBridgeHandler implements visit.Surface.
func (s *Surface) SetBridgeHandler(handler visit.BridgeHandler) { s.bridge = handler }

// VisitLocation implements visit.Surface.
func (s *Surface) VisitLocation(location string, action visit.Action, restorationIdentifier string) {
	s.send(envelope{
		Kind:                  kindCommand,
		Name:                  commandVisit,
		Location:              location,
		Action:                string(action),
		RestorationIdentifier: restorationIdentifier,
	})
}

// CancelVisit implements visit.Surface.
func (s *Surface) CancelVisit(identifier string) {
	s.send(envelope{Kind: kindCommand, Name: commandCancelVisit, Identifier: identifier})
}

// IssueRequestForVisit implements visit.Surface.
func (s *Surface) IssueRequestForVisit(identifier string) {
	s.send(envelope{Kind: kindCommand, Name: commandIssueRequest, Identifier: identifier})
}

// LoadResponseForVisit implements visit.Surface.
func (s *Surface) LoadResponseForVisit(identifier string) {
	s.send(envelope{Kind: kindCommand, Name: commandLoadResponse, Identifier: identifier})
}

// ChangeHistoryForVisit implements visit.Surface.
func (s *Surface) ChangeHistoryForVisit(identifier string) {
	s.send(envelope{Kind: kindCommand, Name: commandChangeHistory, Identifier: identifier})
}

// LoadCachedSnapshotForVisit implements visit.Surface.
func (s *Surface) LoadCachedSnapshotForVisit(identifier string) {
	s.send(envelope{Kind: kindCommand, Name: commandLoadSnapshot, Identifier: identifier})
}

func causeError(cause string) error {
	if cause == "" {
		return nil
	}
	return errors.New(cause)
}
