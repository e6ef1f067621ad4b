package visit

import (
	"sync"
	"sync/atomic"

	"github.com/odvcencio/detour/pkg/telemetry"
)

// Metrics tracks visit lifecycle counters. All methods are nil-safe so a
// visit without metrics costs nothing.
type Metrics struct {
	// Visit outcomes
	VisitsStarted   atomic.Int64
	VisitsCompleted atomic.Int64
	VisitsFailed    atomic.Int64
	VisitsCanceled  atomic.Int64
	ActiveVisits    atomic.Int64

	// Request sub-lifecycle
	RequestsStarted  atomic.Int64
	RequestsFailed   atomic.Int64
	RequestsFinished atomic.Int64

	// Navigation signals
	Redirects atomic.Int64
	Renders   atomic.Int64

	// Telemetry integration
	mu  sync.RWMutex
	hub *telemetry.Hub
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// EnableTelemetry wires the metrics collector to a telemetry hub.
func (m *Metrics) EnableTelemetry(hub *telemetry.Hub) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.hub = hub
	m.mu.Unlock()
}

// RecordVisitStarted increments the started counter.
func (m *Metrics) RecordVisitStarted(visitID, location, action string) {
	if m == nil {
		return
	}
	m.VisitsStarted.Add(1)
	m.ActiveVisits.Add(1)
	m.publishEvent(telemetry.EventVisitStarted, visitID, location, map[string]any{
		"action": action,
	})
}

// RecordVisitCompleted increments the completed counter.
func (m *Metrics) RecordVisitCompleted(visitID, location string) {
	if m == nil {
		return
	}
	m.VisitsCompleted.Add(1)
	m.ActiveVisits.Add(-1)
	m.publishEvent(telemetry.EventVisitCompleted, visitID, location, nil)
}

// RecordVisitFailed increments the failed counter.
func (m *Metrics) RecordVisitFailed(visitID, location string) {
	if m == nil {
		return
	}
	m.VisitsFailed.Add(1)
	m.ActiveVisits.Add(-1)
	m.publishEvent(telemetry.EventVisitFailed, visitID, location, nil)
}

// RecordVisitCanceled increments the canceled counter.
func (m *Metrics) RecordVisitCanceled(visitID, location string) {
	if m == nil {
		return
	}
	m.VisitsCanceled.Add(1)
	m.ActiveVisits.Add(-1)
	m.publishEvent(telemetry.EventVisitCanceled, visitID, location, nil)
}

// RecordRequestStarted increments the request-start counter.
func (m *Metrics) RecordRequestStarted(visitID, location string) {
	if m == nil {
		return
	}
	m.RequestsStarted.Add(1)
	m.publishEvent(telemetry.EventRequestStarted, visitID, location, nil)
}

// RecordRequestFailed increments the request-failure counter with the
// classified error attached.
func (m *Metrics) RecordRequestFailed(visitID, location string, err error) {
	if m == nil {
		return
	}
	m.RequestsFailed.Add(1)
	data := map[string]any{}
	if statusCode, ok := HTTPStatus(err); ok {
		data["status_code"] = statusCode
	} else if err != nil {
		data["error"] = err.Error()
	}
	m.publishEvent(telemetry.EventRequestFailed, visitID, location, data)
}

// RecordRequestFinished increments the request-finish counter.
func (m *Metrics) RecordRequestFinished(visitID, location string) {
	if m == nil {
		return
	}
	m.RequestsFinished.Add(1)
	m.publishEvent(telemetry.EventRequestFinished, visitID, location, nil)
}

// RecordRedirect increments the redirect counter.
func (m *Metrics) RecordRedirect(visitID, location string) {
	if m == nil {
		return
	}
	m.Redirects.Add(1)
	m.publishEvent(telemetry.EventVisitRedirected, visitID, location, nil)
}

// RecordRendered increments the render counter.
func (m *Metrics) RecordRendered(visitID, location string) {
	if m == nil {
		return
	}
	m.Renders.Add(1)
	m.publishEvent(telemetry.EventVisitRendered, visitID, location, nil)
}

func (m *Metrics) publishEvent(eventType telemetry.EventType, visitID, location string, data map[string]any) {
	m.mu.RLock()
	hub := m.hub
	m.mu.RUnlock()
	if hub == nil {
		return
	}
	hub.Publish(telemetry.Event{
		Type:     eventType,
		VisitID:  visitID,
		Location: location,
		Data:     data,
	})
}
