package query

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports cache activity to Prometheus.
type Metrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewMetrics registers the cache collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "Fetches served from the cache.",
		}, []string{"op"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "Fetches that had to wait for a load.",
		}, []string{"op"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_fetches_total",
			Help: "Loads from the remote collaborator by result.",
		}, []string{"op", "result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "query_cache_invalidations_total",
			Help: "Prefix invalidations by origin.",
		}, []string{"op", "origin"}),
	}
	reg.MustRegister(m.hits, m.misses, m.fetches, m.invalidations)
	return m
}

// Observe records one cache event. Pass it to Client.Subscribe.
func (m *Metrics) Observe(ev Event) {
	op := ev.Key.Op()
	switch ev.Type {
	case EventHit:
		m.hits.WithLabelValues(op).Inc()
	case EventMiss:
		m.misses.WithLabelValues(op).Inc()
	case EventFetched:
		result := "success"
		if ev.Err != nil {
			result = "error"
		}
		m.fetches.WithLabelValues(op, result).Inc()
	case EventInvalidated:
		origin := "local"
		if ev.Remote {
			origin = "remote"
		}
		m.invalidations.WithLabelValues(op, origin).Inc()
	}
}
