package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/conceptmap/internal/types"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.CacheEviction()
	m.RecordLookup(OutcomeMapped)
	m.RecordLookup(OutcomeFiltered)
	m.RecordDegraded()
	m.ObserveDuration(2 * time.Millisecond)
	m.RecordCandidates([]types.MatchCandidate{
		{Code: "R51.9", Strategy: types.StrategyExact},
		{Code: "R51.9", Strategy: types.StrategyFuzzy},
		{Code: "G44.209", Strategy: types.StrategyFuzzy},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues(OutcomeMapped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues(OutcomeFiltered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DegradedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("exact")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CandidatesTotal.WithLabelValues("fuzzy")))

	n, err := testutil.GatherAndCount(reg, "conceptmap_lookup_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIsolatedRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CacheHit()
		m.CacheMiss()
		m.CacheEviction()
		m.RecordLookup(OutcomeUnmapped)
		m.RecordCandidates([]types.MatchCandidate{{Strategy: types.StrategySynonym}})
		m.RecordDegraded()
		m.ObserveDuration(time.Second)
	})
}
