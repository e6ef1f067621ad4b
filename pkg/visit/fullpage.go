package visit

import (
	"github.com/google/uuid"
)

// fullPageStrategy drives a complete document load through the surface and
// reconciles the surface's navigation decisions with the visit lifecycle.
type fullPageStrategy struct {
	visit *Visit
	token Token
}

func newFullPageStrategy(v *Visit) *fullPageStrategy {
	// A full-page visit never hears its identifier from the page, so one is
	// assigned up front.
	v.identifier = uuid.NewString()
	return &fullPageStrategy{visit: v}
}

func (s *fullPageStrategy) start() {
	v := s.visit
	v.surface.SetNavigationHandler(s)
	s.token = v.surface.Load(Request{URL: v.location, Referer: v.referer})
	if d := v.delegate; d != nil {
		d.VisitDidStart(v)
	}
	// The request counts as in flight from the moment the load is issued;
	// no separate provisional-navigation signal is waited on.
	v.startRequest()
}

func (s *fullPageStrategy) cancel() {
	s.detachHandler()
	s.visit.surface.StopLoading()
	s.visit.finishRequest()
}

func (s *fullPageStrategy) complete() {
	s.detachHandler()
	if d := s.visit.delegate; d != nil {
		d.SurfaceDidInitialize(s.visit)
	}
}

func (s *fullPageStrategy) fail() {
	s.detachHandler()
	s.visit.finishRequest()
}

// detachHandler clears the surface's navigation slot, but only while this
// visit still owns it. A later visit may already have installed its own
// handler on the shared surface.
func (s *fullPageStrategy) detachHandler() {
	if s.visit.surface.NavigationHandler() == NavigationHandler(s) {
		s.visit.surface.SetNavigationHandler(nil)
	}
}

// DecideNavigation implements NavigationHandler. Link activations never
// navigate the surface directly: unclaimed ones are handed to the host's
// external opener. Other main-frame navigations proceed unless claimed.
func (s *fullPageStrategy) DecideNavigation(decision NavigationDecision) Policy {
	v := s.visit
	if v.state != StateStarted {
		return PolicyCancel
	}
	if decision.LinkActivated {
		if !v.claimNavigation(decision.Location) {
			if d := v.delegate; d != nil {
				d.OpenExternalURL(decision.Location)
			}
		}
		return PolicyCancel
	}
	if v.claimNavigation(decision.Location) {
		return PolicyCancel
	}
	return PolicyAllow
}

// DecideResponse implements NavigationHandler. A 2xx response is offered
// to postprocessing; anything else fails the visit.
func (s *fullPageStrategy) DecideResponse(response Response) Policy {
	v := s.visit
	if v.state != StateStarted {
		return PolicyCancel
	}
	if !response.HTTP {
		v.fail(func() {
			v.reportRequestError(NewNetworkError("response is not an HTTP response", nil))
		})
		return PolicyCancel
	}
	if response.Successful() {
		if v.claimResponse(response) {
			return PolicyCancel
		}
		return PolicyAllow
	}
	statusCode := response.StatusCode
	v.fail(func() {
		v.reportRequestError(NewHTTPError(statusCode))
	})
	return PolicyCancel
}

func (s *fullPageStrategy) NavigationDidFail(token Token, cause error) {
	if token != s.token {
		return
	}
	v := s.visit
	v.fail(func() {
		v.reportRequestError(NewNetworkError("navigation failed", cause))
	})
}

func (s *fullPageStrategy) ProvisionalNavigationDidFail(token Token, cause error) {
	if token != s.token {
		return
	}
	v := s.visit
	v.fail(func() {
		v.reportRequestError(NewNetworkError("provisional navigation failed", cause))
	})
}

// NavigationDidFinish is the generic finished signal; it settles the
// request but never completes the visit.
func (s *fullPageStrategy) NavigationDidFinish(token Token) {
	if token != s.token {
		return
	}
	if s.visit.state != StateStarted {
		return
	}
	s.visit.finishRequest()
}

// PageDidLoad is the completion signal: the page's bootstrap ran and
// reported a restoration identifier.
func (s *fullPageStrategy) PageDidLoad(restorationIdentifier string) {
	v := s.visit
	if v.state != StateStarted {
		return
	}
	v.restorationIdentifier = restorationIdentifier
	if d := v.delegate; d != nil {
		d.VisitDidRender(v)
	}
	v.metrics.RecordRendered(v.identifier, v.location)
	v.complete()
}

func (s *fullPageStrategy) ServerDidRedirect(token Token, location string) {
	if token != s.token {
		return
	}
	s.visit.redirect(location)
}
