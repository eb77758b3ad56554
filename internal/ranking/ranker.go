// Package ranking merges raw match candidates into confidence-scored,
// de-duplicated and ordered mapping results.
package ranking

import (
	"math"
	"sort"
	"strings"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	"github.com/standardbeagle/conceptmap/internal/textnorm"
	"github.com/standardbeagle/conceptmap/internal/types"
)

// DefaultCorroborationBoost is added per extra strategy that found a code
const DefaultCorroborationBoost = 0.05

// confidenceScale rounds confidences to 4 decimals so ties are exact
const confidenceScale = 1e4

// DefaultMarkers are words that distinguish sibling codes within a family
var DefaultMarkers = []string{
	"left", "right", "bilateral", "unilateral",
	"with", "without",
	"upper", "lower",
	"acute", "chronic",
	"intractable",
	"initial", "subsequent", "sequela",
}

// detailHints are category hints that ask for laterality/specificity detail
var detailHints = map[string]struct{}{
	"laterality":  {},
	"specific":    {},
	"specificity": {},
}

// relaxedMarkerCount is how many distinct markers a concept needs before it
// is considered to encode specificity on its own
const relaxedMarkerCount = 2

// Ranker is stateless after construction and safe for concurrent use
type Ranker struct {
	catalog    *catalog.Index
	boost      float64
	maxResults int
	markers    map[string]struct{}
}

// Option configures a Ranker
type Option func(*Ranker)

// WithBoost sets the corroboration boost
func WithBoost(boost float64) Option {
	return func(r *Ranker) {
		if boost >= 0 && boost <= 1 {
			r.boost = boost
		}
	}
}

// WithMaxResults caps how many results Rank can return
func WithMaxResults(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithMarkers replaces the laterality/specificity marker words
func WithMarkers(words []string) Option {
	return func(r *Ranker) {
		if len(words) == 0 {
			return
		}
		r.markers = make(map[string]struct{}, len(words))
		for _, w := range words {
			r.markers[strings.ToLower(w)] = struct{}{}
		}
	}
}

// NewRanker creates a ranker resolving descriptions from cat
func NewRanker(cat *catalog.Index, opts ...Option) *Ranker {
	r := &Ranker{
		catalog:    cat,
		boost:      DefaultCorroborationBoost,
		maxResults: types.DefaultMaxCached,
	}
	WithMarkers(DefaultMarkers)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxResults returns the most results Rank will return
func (r *Ranker) MaxResults() int {
	return r.maxResults
}

type merged struct {
	code       string
	best       float64
	strategies uint8 // bit per types.Strategy
}

// Rank merges candidates by code, applies the corroboration boost, removes
// family duplicates and returns at most topK results ordered by confidence
// descending then code ascending. topK <= 0 means types.DefaultTopK. The
// result is never nil.
func (r *Ranker) Rank(concept types.ConceptMention, candidates []types.MatchCandidate, topK int) []types.MappingResult {
	if topK <= 0 {
		topK = types.DefaultTopK
	}
	if topK > r.maxResults {
		topK = r.maxResults
	}
	if len(candidates) == 0 {
		return []types.MappingResult{}
	}

	results := r.merge(candidates)
	sortResults(results)
	results = r.dedupFamilies(concept, results)

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (r *Ranker) merge(candidates []types.MatchCandidate) []types.MappingResult {
	byCode := make(map[string]*merged, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		m, ok := byCode[c.Code]
		if !ok {
			m = &merged{code: c.Code}
			byCode[c.Code] = m
			order = append(order, c.Code)
		}
		if c.RawScore > m.best {
			m.best = c.RawScore
		}
		m.strategies |= 1 << c.Strategy
	}

	results := make([]types.MappingResult, 0, len(order))
	for _, code := range order {
		m := byCode[code]
		entry, ok := r.catalog.Lookup(code)
		if !ok {
			continue
		}

		var strategies []types.Strategy
		for _, s := range types.Strategies {
			if m.strategies&(1<<s) != 0 {
				strategies = append(strategies, s)
			}
		}

		confidence := m.best + r.boost*float64(len(strategies)-1)
		results = append(results, types.MappingResult{
			Code:        entry.Code,
			Description: entry.Description,
			Confidence:  roundConfidence(confidence),
			Category:    entry.Category,
			Strategies:  strategies,
		})
	}
	return results
}

func roundConfidence(c float64) float64 {
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*confidenceScale) / confidenceScale
}

func sortResults(results []types.MappingResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Code < results[j].Code
	})
}

// dedupFamilies keeps the best member of each code family. Codes found by
// the exact or synonym strategy are always kept and claim their family, so a
// fuzzy-only sibling never survives next to a precise hit. Keeping every
// precise code favors synonym coverage over one code per family. When the
// concept encodes laterality or specificity, a fuzzy sibling is also kept if
// its description carries a marker word the concept uses. results must
// already be sorted.
func (r *Ranker) dedupFamilies(concept types.ConceptMention, results []types.MappingResult) []types.MappingResult {
	conceptMarkers := r.markersIn(r.catalog.Analyzer().Normalize(concept.Text))
	_, hinted := detailHints[strings.ToLower(strings.TrimSpace(concept.Category))]
	relaxed := hinted || len(conceptMarkers) >= relaxedMarkerCount

	families := make(map[string]struct{}, len(results))
	for _, res := range results {
		if isPrecise(res) {
			families[catalog.FamilyPrefix(res.Code)] = struct{}{}
		}
	}

	out := results[:0]
	for _, res := range results {
		family := catalog.FamilyPrefix(res.Code)
		if !isPrecise(res) {
			if _, seen := families[family]; seen {
				if !relaxed || !r.sharesMarker(res.Code, conceptMarkers) {
					continue
				}
			}
			families[family] = struct{}{}
		}
		out = append(out, res)
	}
	return out
}

func isPrecise(res types.MappingResult) bool {
	return res.HasStrategy(types.StrategyExact) || res.HasStrategy(types.StrategySynonym)
}

func (r *Ranker) markersIn(normalized string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, w := range textnorm.Tokenize(normalized) {
		if _, ok := r.markers[w]; ok {
			found[w] = struct{}{}
		}
	}
	return found
}

func (r *Ranker) sharesMarker(code string, conceptMarkers map[string]struct{}) bool {
	if len(conceptMarkers) == 0 {
		return false
	}
	entry, ok := r.catalog.Lookup(code)
	if !ok {
		return false
	}
	for _, w := range textnorm.Tokenize(entry.Normalized) {
		if _, ok := r.markers[w]; !ok {
			continue
		}
		if _, ok := conceptMarkers[w]; ok {
			return true
		}
	}
	return false
}
