package visit

// Delegate receives visit lifecycle notifications. The visit holds the
// delegate as a plain interface value and never manages its lifetime; a
// nil delegate is tolerated everywhere.
//
// For one visit, VisitDidComplete or VisitDidFail fires at most once
// combined, always followed by VisitDidFinish. A canceled visit sends
// neither.
type Delegate interface {
	// VisitWillStart fires before the visit enters the started state.
	VisitWillStart(v *Visit)

	// VisitDidStart fires once the strategy has begun driving the surface.
	VisitDidStart(v *Visit)

	VisitDidComplete(v *Visit)
	VisitDidFail(v *Visit)
	VisitDidFinish(v *Visit)

	// VisitWillLoadResponse fires just before the surface is asked to
	// render the live response for a scripted visit.
	VisitWillLoadResponse(v *Visit)

	// VisitDidRender fires when the surface reports a render. It does not
	// affect visit state.
	VisitDidRender(v *Visit)

	VisitRequestDidStart(v *Visit)

	// VisitRequestDidFail reports the classified request error. It fires at
	// most once per visit, and only while the visit is failing.
	VisitRequestDidFail(v *Visit, err error)

	VisitRequestDidFinish(v *Visit)

	// VisitDidRedirect reports a server-side redirect; the visitable is
	// informed separately.
	VisitDidRedirect(v *Visit, location string)

	// SurfaceDidInitialize fires when a completed full-page load leaves the
	// surface bootstrapped, meaning its script bridge is available for
	// reuse by later scripted visits.
	SurfaceDidInitialize(v *Visit)

	// OpenExternalURL receives link activations the visit refuses to let
	// the surface follow.
	OpenExternalURL(location string)

	// ClaimNavigation is the preprocessing hook: returning true means the
	// delegate fully handles the pending navigation and default handling
	// must be suppressed.
	ClaimNavigation(v *Visit, location string) bool

	// ClaimResponse is the postprocessing hook: returning true means the
	// delegate fully handles the successful response and default handling
	// must be suppressed.
	ClaimResponse(v *Visit, response Response) bool
}
