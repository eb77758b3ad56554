// Package metrics exposes Prometheus instrumentation for the mapper.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/standardbeagle/conceptmap/internal/types"
)

// Lookup outcomes
const (
	OutcomeMapped   = "mapped"
	OutcomeUnmapped = "unmapped"
	OutcomeFiltered = "filtered"
)

// Metrics holds the mapper's collectors. A nil *Metrics is valid and records
// nothing, so tests and library callers can skip instrumentation.
//
// Metrics:
//   - conceptmap_cache_hits_total
//   - conceptmap_cache_misses_total
//   - conceptmap_cache_evictions_total
//   - conceptmap_lookups_total{outcome}
//   - conceptmap_candidates_total{strategy}
//   - conceptmap_degraded_lookups_total
//   - conceptmap_lookup_duration_seconds
type Metrics struct {
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CacheEvictionsTotal prometheus.Counter

	LookupsTotal    *prometheus.CounterVec
	CandidatesTotal *prometheus.CounterVec
	DegradedTotal   prometheus.Counter
	LookupDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg. Pass a fresh
// prometheus.NewRegistry() in tests to keep instances isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "conceptmap_cache_hits_total",
			Help: "Total number of result cache hits",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "conceptmap_cache_misses_total",
			Help: "Total number of result cache misses",
		}),
		CacheEvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "conceptmap_cache_evictions_total",
			Help: "Total number of result cache evictions",
		}),
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conceptmap_lookups_total",
			Help: "Total number of concept lookups by outcome",
		}, []string{"outcome"}),
		CandidatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conceptmap_candidates_total",
			Help: "Total number of raw candidates emitted by strategy",
		}, []string{"strategy"}),
		DegradedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "conceptmap_degraded_lookups_total",
			Help: "Lookups whose fuzzy pass was cut short by a deadline",
		}),
		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "conceptmap_lookup_duration_seconds",
			Help:    "Duration of uncached concept lookups in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~200ms
		}),
	}
}

// CacheHit implements cache.Observer
func (m *Metrics) CacheHit() {
	if m != nil {
		m.CacheHitsTotal.Inc()
	}
}

// CacheMiss implements cache.Observer
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.CacheMissesTotal.Inc()
	}
}

// CacheEviction implements cache.Observer
func (m *Metrics) CacheEviction() {
	if m != nil {
		m.CacheEvictionsTotal.Inc()
	}
}

// RecordLookup counts a finished lookup
func (m *Metrics) RecordLookup(outcome string) {
	if m != nil {
		m.LookupsTotal.WithLabelValues(outcome).Inc()
	}
}

// RecordCandidates counts raw candidates per strategy
func (m *Metrics) RecordCandidates(candidates []types.MatchCandidate) {
	if m == nil {
		return
	}
	var counts [3]int
	for _, c := range candidates {
		if int(c.Strategy) < len(counts) {
			counts[c.Strategy]++
		}
	}
	for _, s := range types.Strategies {
		if counts[s] > 0 {
			m.CandidatesTotal.WithLabelValues(s.String()).Add(float64(counts[s]))
		}
	}
}

// RecordDegraded counts a lookup cut short by its deadline
func (m *Metrics) RecordDegraded() {
	if m != nil {
		m.DegradedTotal.Inc()
	}
}

// ObserveDuration records an uncached lookup's latency
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.LookupDuration.Observe(d.Seconds())
	}
}
