package main

import (
	"context"
	"fmt"

	"github.com/odvcencio/detour/pkg/logging"
	"github.com/odvcencio/detour/pkg/tracing"
	"github.com/odvcencio/detour/pkg/visit"
)

// consoleDelegate logs every visit callback, traces the visit as one span,
// and signals when the visit finishes. It also settles the navigation phase
// once the surface reports a render, which is the controller's job, not the
// visit's.
type consoleDelegate struct {
	logger *logging.Logger
	post   func(func()) error
	done   chan struct{}

	// spanCtx carries the visit span between callbacks. All callbacks run
	// on the dispatch goroutine, so no synchronization is needed.
	spanCtx context.Context

	// failure holds the classified request error, or a generic error when
	// the visit failed without one. Read only after done is closed.
	failure error
}

func newConsoleDelegate(ctx context.Context, logger *logging.Logger, post func(func()) error) *consoleDelegate {
	return &consoleDelegate{
		logger:  logger,
		post:    post,
		done:    make(chan struct{}),
		spanCtx: ctx,
	}
}

func (d *consoleDelegate) log(eventType string, v *visit.Visit, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	if v != nil {
		details["location"] = v.Location()
		details["state"] = v.State()
	}
	visitID := ""
	if v != nil {
		visitID = v.Identifier()
	}
	d.logger.Log(logging.Event{
		Level:     logging.LevelInfo,
		Category:  logging.CategoryVisit,
		EventType: eventType,
		VisitID:   visitID,
		Details:   details,
	})
	tracing.AddEvent(d.spanCtx, eventType)
}

func (d *consoleDelegate) finish() {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}

func (d *consoleDelegate) VisitWillStart(v *visit.Visit) {
	d.spanCtx, _ = tracing.StartVisitSpan(d.spanCtx, v.Identifier(), v.Location(), string(v.Action()))
	tracing.SetAttributes(d.spanCtx, tracing.AttrVisitKind.String(string(v.Kind())))
	d.log("will_start", v, nil)
}

func (d *consoleDelegate) VisitDidStart(v *visit.Visit) {
	// A scripted visit learns its identifier from the bridge after the
	// span starts, so record it once it is known.
	tracing.SetAttributes(d.spanCtx, tracing.AttrVisitID.String(v.Identifier()))
	d.log("did_start", v, nil)
}

func (d *consoleDelegate) VisitDidComplete(v *visit.Visit) { d.log("did_complete", v, nil) }

func (d *consoleDelegate) VisitDidFail(v *visit.Visit) {
	d.log("did_fail", v, nil)
	if d.failure == nil {
		d.failure = fmt.Errorf("visit to %s failed", v.Location())
	}
}

func (d *consoleDelegate) VisitDidFinish(v *visit.Visit) {
	d.log("did_finish", v, nil)
	tracing.SetAttributes(d.spanCtx, tracing.AttrVisitState.String(string(v.State())))
	tracing.EndSpan(d.spanCtx)
	d.finish()
}

func (d *consoleDelegate) VisitWillLoadResponse(v *visit.Visit) {
	d.log("will_load_response", v, nil)
}

func (d *consoleDelegate) VisitDidRender(v *visit.Visit) {
	d.log("did_render", v, nil)
	// Rendering settles the navigation phase; deferred work may now run.
	_ = d.post(v.CompleteNavigation)
}

func (d *consoleDelegate) VisitRequestDidStart(v *visit.Visit) { d.log("request_start", v, nil) }

func (d *consoleDelegate) VisitRequestDidFail(v *visit.Visit, err error) {
	d.log("request_fail", v, map[string]any{"error": err.Error()})
	tracing.RecordError(d.spanCtx, err)
	if statusCode, ok := visit.HTTPStatus(err); ok {
		tracing.SetAttributes(d.spanCtx, tracing.AttrRequestStatusCode.Int(statusCode))
	}
	d.failure = err
}

func (d *consoleDelegate) VisitRequestDidFinish(v *visit.Visit) { d.log("request_finish", v, nil) }

func (d *consoleDelegate) VisitDidRedirect(v *visit.Visit, location string) {
	d.log("redirect", v, map[string]any{"redirect_location": location})
	tracing.SetAttributes(d.spanCtx, tracing.AttrRedirectLocation.String(location))
}

func (d *consoleDelegate) SurfaceDidInitialize(v *visit.Visit) {
	d.log("surface_initialized", v, nil)
}

func (d *consoleDelegate) OpenExternalURL(location string) {
	d.logger.Info(logging.CategoryNavigation, "open_external", location, nil)
}

func (d *consoleDelegate) ClaimNavigation(v *visit.Visit, location string) bool { return false }
func (d *consoleDelegate) ClaimResponse(v *visit.Visit, response visit.Response) bool {
	return false
}

// screen is the minimal visitable the CLI drives.
type screen struct {
	url    string
	logger *logging.Logger
}

func (s *screen) CurrentURL() string { return s.url }

func (s *screen) DidRedirect(location string) {
	s.url = location
	s.logger.Info(logging.CategoryNavigation, "visitable_redirected", location, nil)
}
