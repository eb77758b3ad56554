package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	"github.com/standardbeagle/conceptmap/internal/types"
)

func newTestRanker(t *testing.T, opts ...Option) *Ranker {
	t.Helper()
	cat, err := catalog.Load("../catalog/testdata/catalog.csv")
	require.NoError(t, err)
	return NewRanker(cat, opts...)
}

func cand(code string, s types.Strategy, score float64) types.MatchCandidate {
	return types.MatchCandidate{Code: code, Strategy: s, RawScore: score}
}

func codes(results []types.MappingResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Code
	}
	return out
}

func assertOrdered(t *testing.T, results []types.MappingResult) {
	t.Helper()
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		assert.GreaterOrEqual(t, prev.Confidence, cur.Confidence)
		if prev.Confidence == cur.Confidence {
			assert.Less(t, prev.Code, cur.Code, "ties break by ascending code")
		}
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}

func TestRankMergesAndBoosts(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "diabetes"}, []types.MatchCandidate{
		cand("E11.9", types.StrategyFuzzy, 0.5),
		cand("E11.9", types.StrategySynonym, 0.9),
		cand("R51.9", types.StrategyFuzzy, 0.6),
		cand("R51.9", types.StrategyExact, 1.0),
		cand("R51.9", types.StrategySynonym, 0.9),
	}, 10)

	require.Len(t, results, 2)
	assert.Equal(t, "R51.9", results[0].Code)
	assert.Equal(t, 1.0, results[0].Confidence, "boost is capped at 1.0")
	assert.Equal(t, []types.Strategy{types.StrategyExact, types.StrategySynonym, types.StrategyFuzzy}, results[0].Strategies)

	assert.Equal(t, "E11.9", results[1].Code)
	assert.Equal(t, 0.95, results[1].Confidence)
	assert.Equal(t, "Type 2 diabetes mellitus without complications", results[1].Description)
	assert.Equal(t, "Endocrine, Nutritional and Metabolic Diseases", results[1].Category)
}

func TestRankSameStrategyDoesNotBoost(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "x"}, []types.MatchCandidate{
		cand("R05.9", types.StrategyFuzzy, 0.4),
		cand("R05.9", types.StrategyFuzzy, 0.5),
	}, 5)

	require.Len(t, results, 1)
	assert.Equal(t, 0.5, results[0].Confidence)
}

func TestRankRoundsConfidence(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "x"}, []types.MatchCandidate{
		cand("R05.9", types.StrategyFuzzy, 0.123456),
	}, 5)
	require.Len(t, results, 1)
	assert.Equal(t, 0.1235, results[0].Confidence)
}

func TestRankTieBreakByCode(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "x"}, []types.MatchCandidate{
		cand("R11.0", types.StrategyFuzzy, 0.5),
		cand("J44.9", types.StrategyFuzzy, 0.5),
		cand("F41.9", types.StrategyFuzzy, 0.5),
		cand("I10", types.StrategyFuzzy, 0.7),
	}, 10)

	assert.Equal(t, []string{"I10", "F41.9", "J44.9", "R11.0"}, codes(results))
	assertOrdered(t, results)
}

func TestRankFamilyDedup(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "knee pain right side"}, []types.MatchCandidate{
		cand("M25.561", types.StrategyFuzzy, 0.57),
		cand("M25.562", types.StrategyFuzzy, 0.38),
		cand("M25.569", types.StrategyFuzzy, 0.36),
		cand("M54.50", types.StrategyFuzzy, 0.36),
	}, 6)

	assert.Equal(t, []string{"M25.561", "M54.50"}, codes(results))
}

func TestRankDedupRelaxedByConceptMarkers(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "right and left knee pain"}, []types.MatchCandidate{
		cand("M25.561", types.StrategyFuzzy, 0.6),
		cand("M25.562", types.StrategyFuzzy, 0.6),
		cand("M25.569", types.StrategyFuzzy, 0.5),
	}, 6)

	assert.Equal(t, []string{"M25.561", "M25.562"}, codes(results), "unspecified sibling carries no marker")
}

func TestRankDedupRelaxedByHint(t *testing.T) {
	r := newTestRanker(t)
	candidates := []types.MatchCandidate{
		cand("M25.561", types.StrategyFuzzy, 0.6),
		cand("M25.511", types.StrategyFuzzy, 0.45),
		cand("M25.562", types.StrategyFuzzy, 0.4),
	}

	strict := r.Rank(types.ConceptMention{Text: "right knee pain"}, candidates, 6)
	assert.Equal(t, []string{"M25.561"}, codes(strict))

	relaxed := r.Rank(types.ConceptMention{Text: "right knee pain", Category: "Laterality"}, candidates, 6)
	assert.Equal(t, []string{"M25.561", "M25.511"}, codes(relaxed), "left sibling does not match the concept")
}

func TestRankPreciseHitsSurviveDedup(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "sugar sickness"}, []types.MatchCandidate{
		cand("E11.9", types.StrategySynonym, 0.9),
		cand("E11.65", types.StrategySynonym, 0.9),
		cand("E10.9", types.StrategyFuzzy, 0.5),
	}, 6)

	assert.Equal(t, []string{"E11.65", "E11.9", "E10.9"}, codes(results))
}

func TestRankFuzzySiblingOfPreciseHitDropped(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "headache"}, []types.MatchCandidate{
		cand("R51.9", types.StrategyExact, 1.0),
		cand("R51.0", types.StrategyFuzzy, 0.4),
		cand("G44.209", types.StrategyFuzzy, 0.36),
	}, 6)

	assert.Equal(t, []string{"R51.9", "G44.209"}, codes(results))
}

func TestRankPreciseHitClaimsFamilyOverHigherFuzzySibling(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "headache"}, []types.MatchCandidate{
		cand("R51.0", types.StrategyFuzzy, 0.97),
		cand("R51.9", types.StrategySynonym, 0.9),
		cand("G44.209", types.StrategyFuzzy, 0.4),
	}, 6)

	assert.Equal(t, []string{"R51.9", "G44.209"}, codes(results))
	assertOrdered(t, results)
}

func TestRankTopK(t *testing.T) {
	r := newTestRanker(t, WithMaxResults(3))
	candidates := []types.MatchCandidate{
		cand("I10", types.StrategyFuzzy, 0.9),
		cand("F41.9", types.StrategyFuzzy, 0.8),
		cand("J44.9", types.StrategyFuzzy, 0.7),
		cand("R11.0", types.StrategyFuzzy, 0.6),
		cand("K21.9", types.StrategyFuzzy, 0.5),
	}

	assert.Len(t, r.Rank(types.ConceptMention{Text: "x"}, candidates, 2), 2)
	assert.Len(t, r.Rank(types.ConceptMention{Text: "x"}, candidates, 10), 3, "capped at max results")
	assert.Len(t, r.Rank(types.ConceptMention{Text: "x"}, candidates, 0), 3, "default top-k capped too")
	assert.Equal(t, 3, r.MaxResults())
}

func TestRankDefaultTopK(t *testing.T) {
	r := newTestRanker(t)
	var candidates []types.MatchCandidate
	for _, code := range []string{"I10", "F41.9", "J44.9", "R11.0", "K21.9", "N39.0", "Z00.00", "R05.9"} {
		candidates = append(candidates, cand(code, types.StrategyFuzzy, 0.5))
	}

	results := r.Rank(types.ConceptMention{Text: "x"}, candidates, 0)
	assert.Len(t, results, types.DefaultTopK)
	assertOrdered(t, results)
}

func TestRankEmptyAndUnknown(t *testing.T) {
	r := newTestRanker(t)

	results := r.Rank(types.ConceptMention{Text: "x"}, nil, 5)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results = r.Rank(types.ConceptMention{Text: "x"}, []types.MatchCandidate{cand("Q99.9", types.StrategyFuzzy, 0.9)}, 5)
	assert.Empty(t, results)
}

func TestWithBoostAndMarkers(t *testing.T) {
	r := newTestRanker(t, WithBoost(0), WithMarkers([]string{"Shoulder", "knee"}))

	results := r.Rank(types.ConceptMention{Text: "knee shoulder pain"}, []types.MatchCandidate{
		cand("M25.561", types.StrategyFuzzy, 0.6),
		cand("M25.561", types.StrategySynonym, 0.5),
		cand("M25.511", types.StrategyFuzzy, 0.5),
	}, 6)

	require.Len(t, results, 2)
	assert.Equal(t, 0.6, results[0].Confidence)
	assert.Equal(t, "M25.511", results[1].Code)
}
