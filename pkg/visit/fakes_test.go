package visit

import "fmt"

// fakeSurface records every command a visit issues and exposes the handler
// slots so tests can play surface callbacks back at the strategies.
type fakeSurface struct {
	nav       NavigationHandler
	bridge    BridgeHandler
	lastToken Token

	loads    []Request
	stops    int
	commands []string
}

func (s *fakeSurface) Load(req Request) Token {
	s.loads = append(s.loads, req)
	s.lastToken++
	s.commands = append(s.commands, "load:"+req.URL)
	return s.lastToken
}

func (s *fakeSurface) StopLoading() {
	s.stops++
	s.commands = append(s.commands, "stop")
}

func (s *fakeSurface) NavigationHandler() NavigationHandler     { return s.nav }
func (s *fakeSurface) SetNavigationHandler(h NavigationHandler) { s.nav = h }
func (s *fakeSurface) BridgeHandler() BridgeHandler             { return s.bridge }
func (s *fakeSurface) SetBridgeHandler(h BridgeHandler)         { s.bridge = h }

func (s *fakeSurface) VisitLocation(location string, action Action, restorationIdentifier string) {
	s.commands = append(s.commands, fmt.Sprintf("visit:%s:%s:%s", location, action, restorationIdentifier))
}

func (s *fakeSurface) CancelVisit(identifier string) {
	s.commands = append(s.commands, "cancel:"+identifier)
}

func (s *fakeSurface) IssueRequestForVisit(identifier string) {
	s.commands = append(s.commands, "issue_request:"+identifier)
}

func (s *fakeSurface) LoadResponseForVisit(identifier string) {
	s.commands = append(s.commands, "load_response:"+identifier)
}

func (s *fakeSurface) ChangeHistoryForVisit(identifier string) {
	s.commands = append(s.commands, "change_history:"+identifier)
}

func (s *fakeSurface) LoadCachedSnapshotForVisit(identifier string) {
	s.commands = append(s.commands, "load_snapshot:"+identifier)
}

type fakeVisitable struct {
	url       string
	redirects []string
}

func (v *fakeVisitable) CurrentURL() string { return v.url }

func (v *fakeVisitable) DidRedirect(location string) {
	v.redirects = append(v.redirects, location)
	v.url = location
}

// recordingDelegate appends one entry per callback, in order, so tests can
// assert on exact notification sequences.
type recordingDelegate struct {
	calls     []string
	errors    []error
	opened    []string
	redirects []string

	claimNavigationFn func(location string) bool
	claimResponseFn   func(response Response) bool
}

func (d *recordingDelegate) VisitWillStart(v *Visit)   { d.calls = append(d.calls, "will_start") }
func (d *recordingDelegate) VisitDidStart(v *Visit)    { d.calls = append(d.calls, "did_start") }
func (d *recordingDelegate) VisitDidComplete(v *Visit) { d.calls = append(d.calls, "did_complete") }
func (d *recordingDelegate) VisitDidFail(v *Visit)     { d.calls = append(d.calls, "did_fail") }
func (d *recordingDelegate) VisitDidFinish(v *Visit)   { d.calls = append(d.calls, "did_finish") }

func (d *recordingDelegate) VisitWillLoadResponse(v *Visit) {
	d.calls = append(d.calls, "will_load_response")
}

func (d *recordingDelegate) VisitDidRender(v *Visit)       { d.calls = append(d.calls, "did_render") }
func (d *recordingDelegate) VisitRequestDidStart(v *Visit) { d.calls = append(d.calls, "request_started") }

func (d *recordingDelegate) VisitRequestDidFail(v *Visit, err error) {
	d.calls = append(d.calls, "request_failed")
	d.errors = append(d.errors, err)
}

func (d *recordingDelegate) VisitRequestDidFinish(v *Visit) {
	d.calls = append(d.calls, "request_finished")
}

func (d *recordingDelegate) VisitDidRedirect(v *Visit, location string) {
	d.calls = append(d.calls, "did_redirect")
	d.redirects = append(d.redirects, location)
}

func (d *recordingDelegate) SurfaceDidInitialize(v *Visit) {
	d.calls = append(d.calls, "surface_initialized")
}

func (d *recordingDelegate) OpenExternalURL(location string) {
	d.calls = append(d.calls, "open_external")
	d.opened = append(d.opened, location)
}

func (d *recordingDelegate) ClaimNavigation(v *Visit, location string) bool {
	d.calls = append(d.calls, "claim_navigation")
	if d.claimNavigationFn != nil {
		return d.claimNavigationFn(location)
	}
	return false
}

func (d *recordingDelegate) ClaimResponse(v *Visit, response Response) bool {
	d.calls = append(d.calls, "claim_response")
	if d.claimResponseFn != nil {
		return d.claimResponseFn(response)
	}
	return false
}

func (d *recordingDelegate) count(name string) int {
	n := 0
	for _, call := range d.calls {
		if call == name {
			n++
		}
	}
	return n
}

func newTestVisit(kind Kind) (*Visit, *fakeSurface, *recordingDelegate) {
	surface := &fakeSurface{}
	delegate := &recordingDelegate{}
	v, err := New(Config{
		Kind:      kind,
		Location:  "https://example.com/articles",
		Surface:   surface,
		Visitable: &fakeVisitable{url: "https://example.com/"},
		Delegate:  delegate,
	})
	if err != nil {
		panic(err)
	}
	return v, surface, delegate
}
