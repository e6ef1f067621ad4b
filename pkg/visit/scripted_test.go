package visit

import (
	"reflect"
	"testing"
)

func TestScriptedStartAsksBridgeForVisit(t *testing.T) {
	v, surface, delegate := newTestVisit(KindScripted)

	v.Start()

	if surface.bridge == nil {
		t.Fatal("strategy did not install itself as bridge handler")
	}
	want := []string{"visit:https://example.com/articles:advance:"}
	if !reflect.DeepEqual(surface.commands, want) {
		t.Fatalf("commands = %v, want %v", surface.commands, want)
	}
	// did_start waits for the bridge to answer.
	if got := delegate.count("did_start"); got != 0 {
		t.Errorf("did_start fired %d times before the bridge answered", got)
	}
	if v.Identifier() != "" {
		t.Errorf("identifier = %q before the bridge assigned one", v.Identifier())
	}
}

func TestScriptedCacheHitOrdering(t *testing.T) {
	v, surface, delegate := newTestVisit(KindScripted)
	v.Start()

	surface.bridge.BridgeVisitStarted("v1", true)

	if v.Identifier() != "v1" {
		t.Fatalf("identifier = %q, want v1", v.Identifier())
	}
	if !v.HasCachedSnapshot() {
		t.Error("cached snapshot flag not captured")
	}
	if got := delegate.count("did_start"); got != 1 {
		t.Errorf("did_start fired %d times", got)
	}

	surface.bridge.BridgeRequestStarted("v1")
	surface.bridge.BridgeRequestCompleted("v1")
	surface.bridge.BridgeRequestFinished("v1")
	surface.bridge.BridgeVisitCompleted("v1", "R2")

	// Deferred work has not touched the surface yet.
	for _, command := range surface.commands {
		if command == "change_history:v1" || command == "load_snapshot:v1" || command == "load_response:v1" {
			t.Fatalf("deferred command %q ran before navigation completed", command)
		}
	}
	if v.State() != StateCompleted {
		t.Fatalf("state = %s, want completed", v.State())
	}
	if v.RestorationIdentifier() != "R2" {
		t.Errorf("restoration identifier = %q, want R2", v.RestorationIdentifier())
	}

	v.CompleteNavigation()

	want := []string{
		"visit:https://example.com/articles:advance:",
		"issue_request:v1",
		"change_history:v1",
		"load_snapshot:v1",
		"load_response:v1",
	}
	if !reflect.DeepEqual(surface.commands, want) {
		t.Errorf("commands = %v, want %v", surface.commands, want)
	}
	if got := delegate.count("will_load_response"); got != 1 {
		t.Errorf("will_load_response fired %d times", got)
	}
}

func TestScriptedNavigationCompletesFirst(t *testing.T) {
	v, surface, delegate := newTestVisit(KindScripted)
	v.Start()

	surface.bridge.BridgeVisitStarted("v1", false)
	v.CompleteNavigation()

	// History/snapshot work drains as soon as navigation settles.
	want := []string{
		"visit:https://example.com/articles:advance:",
		"issue_request:v1",
		"change_history:v1",
		"load_snapshot:v1",
	}
	if !reflect.DeepEqual(surface.commands, want) {
		t.Fatalf("commands = %v, want %v", surface.commands, want)
	}

	// A continuation registered after completion runs synchronously.
	surface.bridge.BridgeRequestCompleted("v1")
	if surface.commands[len(surface.commands)-1] != "load_response:v1" {
		t.Errorf("live response not loaded immediately: %v", surface.commands)
	}
	if got := delegate.count("will_load_response"); got != 1 {
		t.Errorf("will_load_response fired %d times", got)
	}
}

func TestScriptedIdentifierMismatchIgnored(t *testing.T) {
	v, surface, delegate := newTestVisit(KindScripted)
	v.Start()
	surface.bridge.BridgeVisitStarted("v1", false)

	before := len(delegate.calls)
	commandsBefore := len(surface.commands)

	surface.bridge.BridgeRequestStarted("v2")
	surface.bridge.BridgeRequestCompleted("v2")
	surface.bridge.BridgeRequestFailed("v2", 500)
	surface.bridge.BridgeRequestFinished("v2")
	surface.bridge.BridgeRendered("v2")
	surface.bridge.BridgeVisitCompleted("v2", "R9")

	if len(delegate.calls) != before {
		t.Errorf("mismatched callbacks notified the delegate: %v", delegate.calls[before:])
	}
	if len(surface.commands) != commandsBefore {
		t.Errorf("mismatched callbacks issued commands: %v", surface.commands[commandsBefore:])
	}
	if v.State() != StateStarted {
		t.Errorf("state = %s, want started", v.State())
	}
	if v.RestorationIdentifier() != "" {
		t.Errorf("restoration identifier = %q from a foreign visit", v.RestorationIdentifier())
	}
}

func TestScriptedCancelMidFlight(t *testing.T) {
	v, surface, delegate := newTestVisit(KindScripted)
	v.Start()
	surface.bridge.BridgeVisitStarted("v1", false)
	surface.bridge.BridgeRequestStarted("v1")

	v.Cancel()

	found := false
	for _, command := range surface.commands {
		if command == "cancel:v1" {
			found = true
		}
	}
	if !found {
		t.Errorf("bridge was not asked to cancel: %v", surface.commands)
	}
	// Cancel settles the request without a failure notification.
	if got := delegate.count("request_finished"); got != 1 {
		t.Errorf("request_finished fired %d times", got)
	}

	before := len(delegate.calls)
	surface.bridge.BridgeRequestCompleted("v1")
	surface.bridge.BridgeRendered("v1")
	surface.bridge.BridgeVisitCompleted("v1", "R")
	v.CompleteNavigation()

	if len(delegate.calls) != before {
		t.Errorf("late callbacks notified the delegate: %v", delegate.calls[before:])
	}
	if v.State() != StateCanceled {
		t.Errorf("state = %s, want canceled", v.State())
	}
	if got := delegate.count("did_fail") + delegate.count("did_complete") + delegate.count("did_finish"); got != 0 {
		t.Errorf("terminal notifications fired after cancel: %v", delegate.calls)
	}
}

func TestScriptedCancelBeforeIdentifierSkipsBridgeCancel(t *testing.T) {
	v, surface, _ := newTestVisit(KindScripted)
	v.Start()

	v.Cancel()

	for _, command := range surface.commands {
		if command == "cancel:" {
			t.Errorf("bridge cancel issued without an identifier: %v", surface.commands)
		}
	}
}

func TestScriptedRequestFailureClassification(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		wantHTTP   bool
	}{
		{"no network response", 0, false},
		{"http status", 422, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, surface, delegate := newTestVisit(KindScripted)
			v.Start()
			surface.bridge.BridgeVisitStarted("v1", false)

			surface.bridge.BridgeRequestFailed("v1", tc.statusCode)

			if v.State() != StateFailed {
				t.Fatalf("state = %s, want failed", v.State())
			}
			if len(delegate.errors) != 1 {
				t.Fatalf("expected 1 reported error, got %d", len(delegate.errors))
			}
			statusCode, isHTTP := HTTPStatus(delegate.errors[0])
			if isHTTP != tc.wantHTTP {
				t.Errorf("isHTTP = %v, want %v (%v)", isHTTP, tc.wantHTTP, delegate.errors[0])
			}
			if tc.wantHTTP && statusCode != tc.statusCode {
				t.Errorf("status = %d, want %d", statusCode, tc.statusCode)
			}
			if !tc.wantHTTP && !IsNetworkFailure(delegate.errors[0]) {
				t.Errorf("error = %v, want network failure", delegate.errors[0])
			}
			if got := delegate.count("did_fail"); got != 1 {
				t.Errorf("did_fail fired %d times", got)
			}
		})
	}
}

func TestScriptedRenderedNotifiesWithoutStateChange(t *testing.T) {
	v, surface, delegate := newTestVisit(KindScripted)
	v.Start()
	surface.bridge.BridgeVisitStarted("v1", false)

	surface.bridge.BridgeRendered("v1")

	if got := delegate.count("did_render"); got != 1 {
		t.Errorf("did_render fired %d times", got)
	}
	if v.State() != StateStarted {
		t.Errorf("render changed state to %s", v.State())
	}
}

func TestScriptedDuplicateVisitStartedIgnored(t *testing.T) {
	v, surface, delegate := newTestVisit(KindScripted)
	v.Start()
	surface.bridge.BridgeVisitStarted("v1", false)
	surface.bridge.BridgeVisitStarted("v9", true)

	if v.Identifier() != "v1" {
		t.Errorf("identifier = %q, want v1", v.Identifier())
	}
	if v.HasCachedSnapshot() {
		t.Error("duplicate start overwrote the snapshot flag")
	}
	if got := delegate.count("did_start"); got != 1 {
		t.Errorf("did_start fired %d times", got)
	}
}

func TestScriptedRestoreVisitPassesRestorationIdentifier(t *testing.T) {
	surface := &fakeSurface{}
	v, err := New(Config{
		Kind:                  KindScripted,
		Location:              "https://example.com/articles",
		Action:                ActionRestore,
		RestorationIdentifier: "R1",
		Surface:               surface,
		Visitable:             &fakeVisitable{},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	v.Start()

	want := "visit:https://example.com/articles:restore:R1"
	if len(surface.commands) != 1 || surface.commands[0] != want {
		t.Errorf("commands = %v, want [%s]", surface.commands, want)
	}
}
