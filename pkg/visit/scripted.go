package visit

// scriptedStrategy drives an in-page navigation through the surface's
// script bridge. Every lifecycle signal arrives asynchronously, tagged
// with the bridge-assigned visit identifier; signals carrying any other
// identifier belong to a superseded visit and are dropped.
type scriptedStrategy struct {
	visit *Visit
}

func newScriptedStrategy(v *Visit) *scriptedStrategy {
	return &scriptedStrategy{visit: v}
}

func (s *scriptedStrategy) start() {
	v := s.visit
	v.surface.SetBridgeHandler(s)
	v.surface.VisitLocation(v.location, v.action, v.restorationIdentifier)
}

func (s *scriptedStrategy) cancel() {
	v := s.visit
	if v.identifier != "" {
		v.surface.CancelVisit(v.identifier)
	}
	v.finishRequest()
}

func (s *scriptedStrategy) complete() {}

func (s *scriptedStrategy) fail() {
	s.visit.finishRequest()
}

// matches filters bridge callbacks: the visit must still be active and the
// identifier must be the one assigned to it.
func (s *scriptedStrategy) matches(identifier string) bool {
	v := s.visit
	return v.state == StateStarted && v.identifier != "" && v.identifier == identifier
}

// BridgeVisitStarted establishes the visit's identifier and kicks off the
// request plus the navigation-deferred history and snapshot work.
func (s *scriptedStrategy) BridgeVisitStarted(identifier string, hasCachedSnapshot bool) {
	v := s.visit
	if v.state != StateStarted || v.identifier != "" {
		return
	}
	v.identifier = identifier
	v.hasCachedSnapshot = hasCachedSnapshot
	if d := v.delegate; d != nil {
		d.VisitDidStart(v)
	}
	v.surface.IssueRequestForVisit(identifier)
	v.afterNavigationCompletion(func() {
		v.surface.ChangeHistoryForVisit(identifier)
		v.surface.LoadCachedSnapshotForVisit(identifier)
	})
}

func (s *scriptedStrategy) BridgeRequestStarted(identifier string) {
	if !s.matches(identifier) {
		return
	}
	s.visit.startRequest()
}

// BridgeRequestCompleted defers rendering the live response until the
// navigation phase settles, behind any earlier deferred work.
func (s *scriptedStrategy) BridgeRequestCompleted(identifier string) {
	if !s.matches(identifier) {
		return
	}
	v := s.visit
	v.afterNavigationCompletion(func() {
		if d := v.delegate; d != nil {
			d.VisitWillLoadResponse(v)
		}
		v.surface.LoadResponseForVisit(identifier)
	})
}

func (s *scriptedStrategy) BridgeRequestFailed(identifier string, statusCode int) {
	if !s.matches(identifier) {
		return
	}
	v := s.visit
	v.fail(func() {
		if statusCode == 0 {
			v.reportRequestError(NewNetworkError("request produced no response", nil))
		} else {
			v.reportRequestError(NewHTTPError(statusCode))
		}
	})
}

func (s *scriptedStrategy) BridgeRequestFinished(identifier string) {
	if !s.matches(identifier) {
		return
	}
	s.visit.finishRequest()
}

func (s *scriptedStrategy) BridgeRendered(identifier string) {
	if !s.matches(identifier) {
		return
	}
	v := s.visit
	if d := v.delegate; d != nil {
		d.VisitDidRender(v)
	}
	v.metrics.RecordRendered(v.identifier, v.location)
}

func (s *scriptedStrategy) BridgeVisitCompleted(identifier string, restorationIdentifier string) {
	if !s.matches(identifier) {
		return
	}
	v := s.visit
	v.restorationIdentifier = restorationIdentifier
	v.complete()
}
