// Package metrics defines the Prometheus registry shared by decisiond and
// anchord, following the lazy singleton pattern the rest of the stack uses
// for its own per-service metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type decisionMetrics struct {
	decisionsTotal       *prometheus.CounterVec
	decisionLatency      *prometheus.HistogramVec
	oracleCallsTotal     *prometheus.CounterVec
	attestorSignsTotal   *prometheus.CounterVec
	idempotencyHits      prometheus.Counter
	idempotencyRaces     prometheus.Counter
	anchorCycleDuration  prometheus.Histogram
	anchorRowsCovered    prometheus.Counter
}

var (
	once sync.Once
	reg  *decisionMetrics
)

// Registry returns the lazily-initialised decisioncore metrics registry.
func Registry() *decisionMetrics {
	once.Do(func() {
		reg = &decisionMetrics{
			decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "decisioncore",
				Name:      "decisions_total",
				Help:      "Total decisions returned by the Decision Engine, segmented by outcome.",
			}, []string{"decision"}),
			decisionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "decisioncore",
				Name:      "decision_latency_seconds",
				Help:      "Latency distribution of decide() calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"decision"}),
			oracleCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "decisioncore",
				Name:      "oracle_calls_total",
				Help:      "Total one-bit oracle calls, segmented by outcome.",
			}, []string{"outcome"}),
			attestorSignsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "decisioncore",
				Name:      "attestor_signs_total",
				Help:      "Total Attestor signing operations, segmented by operation.",
			}, []string{"op"}),
			idempotencyHits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "decisioncore",
				Name:      "ledger_idempotency_hits_total",
				Help:      "Total decide() calls served from a cached idempotency-key match.",
			}),
			idempotencyRaces: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "decisioncore",
				Name:      "ledger_idempotency_races_total",
				Help:      "Total decide() calls that lost a concurrent insert race on the same idempotency key.",
			}),
			anchorCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "decisioncore",
				Name:      "anchor_cycle_duration_seconds",
				Help:      "Duration of each anchor worker cycle.",
				Buckets:   prometheus.DefBuckets,
			}),
			anchorRowsCovered: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "decisioncore",
				Name:      "anchor_rows_covered_total",
				Help:      "Total ledger rows covered by completed anchor cycles.",
			}),
		}
		prometheus.MustRegister(
			reg.decisionsTotal,
			reg.decisionLatency,
			reg.oracleCallsTotal,
			reg.attestorSignsTotal,
			reg.idempotencyHits,
			reg.idempotencyRaces,
			reg.anchorCycleDuration,
			reg.anchorRowsCovered,
		)
	})
	return reg
}

// ObserveDecision records a completed decide() call.
func (m *decisionMetrics) ObserveDecision(decision string, duration time.Duration) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(decision).Inc()
	m.decisionLatency.WithLabelValues(decision).Observe(duration.Seconds())
}

// ObserveOracleCall records a one-bit oracle round trip outcome.
func (m *decisionMetrics) ObserveOracleCall(outcome string) {
	if m == nil {
		return
	}
	m.oracleCallsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAttestorSign records an Attestor signing operation.
func (m *decisionMetrics) ObserveAttestorSign(op string) {
	if m == nil {
		return
	}
	m.attestorSignsTotal.WithLabelValues(op).Inc()
}

// RecordIdempotencyHit records a decide() call served from cache.
func (m *decisionMetrics) RecordIdempotencyHit() {
	if m == nil {
		return
	}
	m.idempotencyHits.Inc()
}

// RecordIdempotencyRace records a decide() call that lost an insert race.
func (m *decisionMetrics) RecordIdempotencyRace() {
	if m == nil {
		return
	}
	m.idempotencyRaces.Inc()
}

// ObserveAnchorCycle records a completed anchor cycle's duration and the
// number of ledger rows it covered.
func (m *decisionMetrics) ObserveAnchorCycle(duration time.Duration, rowsCovered int) {
	if m == nil {
		return
	}
	m.anchorCycleDuration.Observe(duration.Seconds())
	if rowsCovered > 0 {
		m.anchorRowsCovered.Add(float64(rowsCovered))
	}
}
