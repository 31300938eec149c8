// Package metrics holds the Prometheus instruments of the cascade engine
// and its API. A nil *Registry is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics for the cascade
type Registry struct {
	gatherer prometheus.Gatherer

	// Compute duration by outcome
	ComputeDuration *prometheus.HistogramVec

	// Memo performance
	MemoHits   prometheus.Counter
	MemoMisses prometheus.Counter

	// History maintenance
	BackfillWrites prometheus.Counter
	StorageErrors  *prometheus.CounterVec
	HistoryPurges  prometheus.Counter

	// Latest outcome
	LastMomentum prometheus.Gauge
	LastCeiling  prometheus.Gauge
	States       *prometheus.CounterVec

	// API
	HTTPRequests *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Registry{
		gatherer: reg,

		ComputeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cascade_compute_duration_seconds",
				Help:    "Duration of one cascade computation in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"result"},
		),

		MemoHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_memo_hits_total",
				Help: "Computations answered from the memo",
			},
		),

		MemoMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_memo_misses_total",
				Help: "Computations that had to run the engine",
			},
		),

		BackfillWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_backfill_writes_total",
				Help: "History entries written by the backfill estimator",
			},
		),

		StorageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_storage_errors_total",
				Help: "History store failures by operation",
			},
			[]string{"op"},
		),

		HistoryPurges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cascade_history_purges_total",
				Help: "History keys removed because of a schema version change",
			},
		),

		LastMomentum: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cascade_momentum",
				Help: "Momentum of the most recent computation",
			},
		),

		LastCeiling: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cascade_ceiling",
				Help: "Individual ceiling of the most recent computation",
			},
		),

		States: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_states_total",
				Help: "Computed states by value",
			},
			[]string{"state"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cascade_http_requests_total",
				Help: "API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	reg.MustRegister(
		m.ComputeDuration,
		m.MemoHits,
		m.MemoMisses,
		m.BackfillWrites,
		m.StorageErrors,
		m.HistoryPurges,
		m.LastMomentum,
		m.LastCeiling,
		m.States,
		m.HTTPRequests,
	)

	return m
}

// StepTimer measures one computation
type StepTimer struct {
	m     *Registry
	start time.Time
}

// StartTimer starts timing a computation
func (m *Registry) StartTimer() *StepTimer {
	return &StepTimer{m: m, start: time.Now()}
}

// Stop records the elapsed time under result
func (st *StepTimer) Stop(result string) {
	if st.m == nil {
		return
	}
	st.m.ComputeDuration.WithLabelValues(result).Observe(time.Since(st.start).Seconds())
}

// RecordMemo counts a memo lookup
func (m *Registry) RecordMemo(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.MemoHits.Inc()
	} else {
		m.MemoMisses.Inc()
	}
}

// RecordStorageError counts a failed store operation
func (m *Registry) RecordStorageError(op string) {
	if m == nil {
		return
	}
	m.StorageErrors.WithLabelValues(op).Inc()
}

// RecordBackfill counts backfilled entries
func (m *Registry) RecordBackfill(n int) {
	if m == nil || n == 0 {
		return
	}
	m.BackfillWrites.Add(float64(n))
}

// RecordPurge counts purged history keys
func (m *Registry) RecordPurge(n int) {
	if m == nil || n == 0 {
		return
	}
	m.HistoryPurges.Add(float64(n))
}

// RecordOutcome publishes the latest momentum, ceiling and state
func (m *Registry) RecordOutcome(momentum, ceiling float64, state string) {
	if m == nil {
		return
	}
	m.LastMomentum.Set(momentum)
	m.LastCeiling.Set(ceiling)
	m.States.WithLabelValues(state).Inc()
}

// RecordRequest counts an API request
func (m *Registry) RecordRequest(route string, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Registry) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
