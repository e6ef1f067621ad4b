package visit

import (
	"github.com/odvcencio/detour/pkg/logging"
)

// Config describes one navigation attempt. Kind selects the strategy;
// everything else is the visit's target and collaborators.
type Config struct {
	Kind     Kind
	Location string
	Action   Action

	Surface   Surface
	Visitable Visitable
	Delegate  Delegate

	// RestorationIdentifier seeds a restore visit with a previously
	// captured identifier. Strategies may overwrite it on completion.
	RestorationIdentifier string

	// Referer is sent with the document load of a full-page visit.
	Referer string

	// Logger and Metrics are optional ambient collaborators.
	Logger  *logging.Logger
	Metrics *Metrics
}

// Visit tracks one navigation attempt end to end. Construct with New,
// drive with Start, abandon with Cancel; every other transition is fed by
// surface callbacks through the visit's strategy.
type Visit struct {
	identifier            string
	location              string
	action                Action
	kind                  Kind
	state                 State
	hasCachedSnapshot     bool
	restorationIdentifier string
	referer               string

	surface   Surface
	visitable Visitable
	delegate  Delegate
	strategy  strategy

	requestStarted  bool
	requestFinished bool

	navigationCompleted bool
	deferred            []func()

	logger  *logging.Logger
	metrics *Metrics
}

// strategy is the closed set of per-kind lifecycle hooks. Exactly two
// implementations exist: fullPageStrategy and scriptedStrategy.
type strategy interface {
	start()
	cancel()
	complete()
	fail()
}

// New validates cfg and builds a Visit in the initialized state.
func New(cfg Config) (*Visit, error) {
	if cfg.Location == "" {
		return nil, ErrLocationRequired
	}
	if cfg.Surface == nil {
		return nil, ErrSurfaceRequired
	}
	if cfg.Visitable == nil {
		return nil, ErrVisitableRequired
	}
	if cfg.Kind == "" {
		cfg.Kind = KindFullPage
	}
	if !cfg.Kind.Valid() {
		return nil, ErrUnknownKind
	}
	if cfg.Action == "" {
		cfg.Action = ActionAdvance
	}
	if !cfg.Action.Valid() {
		return nil, ErrUnknownAction
	}

	v := &Visit{
		location:              cfg.Location,
		action:                cfg.Action,
		kind:                  cfg.Kind,
		state:                 StateInitialized,
		restorationIdentifier: cfg.RestorationIdentifier,
		referer:               cfg.Referer,
		surface:               cfg.Surface,
		visitable:             cfg.Visitable,
		delegate:              cfg.Delegate,
		logger:                cfg.Logger,
		metrics:               cfg.Metrics,
	}
	switch cfg.Kind {
	case KindFullPage:
		v.strategy = newFullPageStrategy(v)
	case KindScripted:
		v.strategy = newScriptedStrategy(v)
	}
	return v, nil
}

// Identifier returns the strategy-assigned identifier. Empty until the
// strategy establishes one; a scripted visit gets it from the first bridge
// callback.
func (v *Visit) Identifier() string { return v.identifier }

// Location returns the target URL.
func (v *Visit) Location() string { return v.location }

// Action returns the visit's history action.
func (v *Visit) Action() Action { return v.action }

// Kind returns which strategy drives the visit.
func (v *Visit) Kind() Kind { return v.kind }

// State returns the current lifecycle state.
func (v *Visit) State() State { return v.state }

// HasCachedSnapshot reports whether the bridge found a cached snapshot for
// the location.
func (v *Visit) HasCachedSnapshot() bool { return v.hasCachedSnapshot }

// RestorationIdentifier returns the restoration token, as seeded by the
// host or captured on completion.
func (v *Visit) RestorationIdentifier() string { return v.restorationIdentifier }

// Referer returns the referer header value for a full-page load.
func (v *Visit) Referer() string { return v.referer }

// Visitable returns the screen this visit was created for.
func (v *Visit) Visitable() Visitable { return v.visitable }

// Start begins the visit. Valid only from the initialized state; any later
// call is a no-op.
func (v *Visit) Start() {
	if v.state != StateInitialized {
		return
	}
	if d := v.delegate; d != nil {
		d.VisitWillStart(v)
	}
	v.state = StateStarted
	v.logTransition("visit_started", logging.LevelInfo)
	v.metrics.RecordVisitStarted(v.identifier, v.location, string(v.action))
	v.strategy.start()
}

// Cancel abandons a started visit. The delegate receives no completion or
// failure notification; late surface callbacks become no-ops.
func (v *Visit) Cancel() {
	if v.state != StateStarted {
		return
	}
	v.state = StateCanceled
	v.logTransition("visit_canceled", logging.LevelInfo)
	v.metrics.RecordVisitCanceled(v.identifier, v.location)
	v.strategy.cancel()
}

// complete terminates a started visit successfully. Idempotent, and
// mutually exclusive with fail: whichever runs first wins.
func (v *Visit) complete() {
	if v.state != StateStarted {
		return
	}
	v.state = StateCompleted
	v.logTransition("visit_completed", logging.LevelInfo)
	v.metrics.RecordVisitCompleted(v.identifier, v.location)
	v.strategy.complete()
	if d := v.delegate; d != nil {
		d.VisitDidComplete(v)
		d.VisitDidFinish(v)
	}
}

// fail terminates a started visit unsuccessfully. The side effect, when
// given, runs after the state flips and before the strategy hook; it is
// where strategies construct and report their request error, so the error
// reaches the delegate exactly once.
func (v *Visit) fail(sideEffect func()) {
	if v.state != StateStarted {
		return
	}
	v.state = StateFailed
	v.logTransition("visit_failed", logging.LevelWarn)
	v.metrics.RecordVisitFailed(v.identifier, v.location)
	if sideEffect != nil {
		sideEffect()
	}
	v.strategy.fail()
	if d := v.delegate; d != nil {
		d.VisitDidFail(v)
		d.VisitDidFinish(v)
	}
}

// startRequest marks the network request in flight. A no-op after the
// first call.
func (v *Visit) startRequest() {
	if v.requestStarted {
		return
	}
	v.requestStarted = true
	v.logTransition("request_started", logging.LevelDebug)
	v.metrics.RecordRequestStarted(v.identifier, v.location)
	if d := v.delegate; d != nil {
		d.VisitRequestDidStart(v)
	}
}

// finishRequest marks the network request done. A no-op unless a request
// was started and not yet finished, so finish can never precede start and
// both fire at most once.
func (v *Visit) finishRequest() {
	if !v.requestStarted || v.requestFinished {
		return
	}
	v.requestFinished = true
	v.logTransition("request_finished", logging.LevelDebug)
	v.metrics.RecordRequestFinished(v.identifier, v.location)
	if d := v.delegate; d != nil {
		d.VisitRequestDidFinish(v)
	}
}

// reportRequestError classifies a raw failure signal into the delegate's
// hands. Only call from inside a fail side effect.
func (v *Visit) reportRequestError(err error) {
	if v.logger != nil {
		v.logger.Error(logging.CategoryRequest, "request_failed", err.Error(), map[string]any{
			"visit_id": v.identifier,
			"location": v.location,
		})
	}
	v.metrics.RecordRequestFailed(v.identifier, v.location, err)
	if d := v.delegate; d != nil {
		d.VisitRequestDidFail(v, err)
	}
}

// CompleteNavigation marks the navigation phase settled and drains the
// deferred continuations in registration order. The controller calls this
// when the surface reports that navigation finished rendering. Calling it
// again is a no-op, and a canceled visit never settles: its continuations
// are abandoned. The visit completing first does not block the drain; the
// request and navigation phases are independent.
func (v *Visit) CompleteNavigation() {
	if v.state == StateCanceled || v.navigationCompleted {
		return
	}
	v.navigationCompleted = true
	v.logTransition("navigation_completed", logging.LevelDebug)
	v.runDeferred()
}

// afterNavigationCompletion runs fn once navigation settles. If it already
// has, fn runs immediately (unless the visit was canceled); otherwise fn
// is queued behind earlier registrations. Cancellation is re-checked
// before each queued continuation runs.
func (v *Visit) afterNavigationCompletion(fn func()) {
	if fn == nil {
		return
	}
	if v.navigationCompleted {
		if v.state != StateCanceled {
			fn()
		}
		return
	}
	v.deferred = append(v.deferred, fn)
}

func (v *Visit) runDeferred() {
	for len(v.deferred) > 0 {
		if v.state == StateCanceled {
			v.deferred = nil
			return
		}
		fn := v.deferred[0]
		v.deferred = v.deferred[1:]
		fn()
	}
}

// redirect forwards a server-side redirect to the delegate and the
// visitable. Ignored once the visit is no longer active.
func (v *Visit) redirect(location string) {
	if v.state != StateStarted {
		return
	}
	v.logTransition("redirected", logging.LevelInfo)
	v.metrics.RecordRedirect(v.identifier, location)
	if d := v.delegate; d != nil {
		d.VisitDidRedirect(v, location)
	}
	v.visitable.DidRedirect(location)
}

func (v *Visit) claimNavigation(location string) bool {
	return v.delegate != nil && v.delegate.ClaimNavigation(v, location)
}

func (v *Visit) claimResponse(response Response) bool {
	return v.delegate != nil && v.delegate.ClaimResponse(v, response)
}

func (v *Visit) logTransition(eventType string, level logging.Level) {
	if v.logger == nil {
		return
	}
	v.logger.Log(logging.Event{
		Level:     level,
		Category:  logging.CategoryVisit,
		EventType: eventType,
		VisitID:   v.identifier,
		Details: map[string]any{
			"location": v.location,
			"action":   v.action,
			"kind":     v.kind,
			"state":    v.state,
		},
	})
}
