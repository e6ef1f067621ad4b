package diagnostics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// registerCollectors exposes the atomic visit counters as Prometheus gauges
// on the server's private registry. Each scrape reads the live values.
func (s *Server) registerCollectors() {
	if s.visits == nil {
		return
	}
	factory := promauto.With(s.registry)

	gauge := func(name, help string, load func() int64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "detour",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(load()) })
	}

	gauge("visits_started_total", "Visits that entered the started state.", s.visits.VisitsStarted.Load)
	gauge("visits_completed_total", "Visits that reached the completed state.", s.visits.VisitsCompleted.Load)
	gauge("visits_failed_total", "Visits that reached the failed state.", s.visits.VisitsFailed.Load)
	gauge("visits_canceled_total", "Visits that were canceled.", s.visits.VisitsCanceled.Load)
	gauge("visits_active", "Visits currently in flight.", s.visits.ActiveVisits.Load)
	gauge("requests_started_total", "Visit requests issued.", s.visits.RequestsStarted.Load)
	gauge("requests_failed_total", "Visit requests that failed.", s.visits.RequestsFailed.Load)
	gauge("requests_finished_total", "Visit requests that finished.", s.visits.RequestsFinished.Load)
	gauge("redirects_total", "Server redirects observed mid-visit.", s.visits.Redirects.Load)
	gauge("renders_total", "Page renders observed.", s.visits.Renders.Load)
}
