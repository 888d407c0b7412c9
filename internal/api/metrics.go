package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Commit outcomes
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics holds the API collectors
type Metrics struct {
	commits    *prometheus.CounterVec
	generation *prometheus.HistogramVec
	cache      *prometheus.CounterVec
}

// NewMetrics creates the API collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prismagen_commits_total",
				Help: "Total number of state commands by entity and outcome",
			},
			[]string{"entity", "outcome"},
		),
		generation: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prismagen_generation_duration_seconds",
				Help:    "Duration of document rendering in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"format"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prismagen_render_cache_total",
				Help: "Total number of preview render cache lookups by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.commits, m.generation, m.cache)
	return m
}

func (m *Metrics) commit(entity, outcome string) {
	if m == nil {
		return
	}
	m.commits.WithLabelValues(entity, outcome).Inc()
}

func (m *Metrics) observeGeneration(format string, seconds float64) {
	if m == nil {
		return
	}
	m.generation.WithLabelValues(format).Observe(seconds)
}

func (m *Metrics) renderCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
