package mapper

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/conceptmap/internal/cache"
	"github.com/standardbeagle/conceptmap/internal/catalog"
	"github.com/standardbeagle/conceptmap/internal/matching"
	"github.com/standardbeagle/conceptmap/internal/metrics"
	"github.com/standardbeagle/conceptmap/internal/ranking"
	"github.com/standardbeagle/conceptmap/internal/synonym"
	"github.com/standardbeagle/conceptmap/internal/types"
)

// Mapper maps concept mentions to ranked catalog codes. It is safe for
// concurrent use.
type Mapper struct {
	catalog  *catalog.Index
	synonyms *synonym.Index
	engine   *matching.Engine
	ranker   *ranking.Ranker
	cache    *cache.ResultCache
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	engineOpts []matching.Option
	rankerOpts []ranking.Option

	topK     int
	workers  int
	deadline time.Duration
	filter   *filter
}

// Option configures a Mapper
type Option func(*Mapper)

// WithSynonyms enables the synonym strategy and adds the index's medication
// exclusions to the filter
func WithSynonyms(s *synonym.Index) Option {
	return func(m *Mapper) { m.synonyms = s }
}

// WithCache injects the result cache
func WithCache(c *cache.ResultCache) Option {
	return func(m *Mapper) { m.cache = c }
}

// WithMetrics records lookups on m. Pass the same Metrics to the cache via
// cache.WithObserver to count hits and evictions.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Mapper) { m.metrics = mt }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// WithEngineOptions configures the matching engine
func WithEngineOptions(opts ...matching.Option) Option {
	return func(m *Mapper) { m.engineOpts = append(m.engineOpts, opts...) }
}

// WithRankerOptions configures the ranker
func WithRankerOptions(opts ...ranking.Option) Option {
	return func(m *Mapper) { m.rankerOpts = append(m.rankerOpts, opts...) }
}

// WithDefaultTopK sets the result count used when a call passes topK <= 0
func WithDefaultTopK(k int) Option {
	return func(m *Mapper) {
		if k > 0 {
			m.topK = k
		}
	}
}

// WithWorkers bounds how many mentions of a batch are mapped at once
func WithWorkers(n int) Option {
	return func(m *Mapper) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithDeadline caps the time spent matching one mention. Lookups that run
// out of time return the candidates found so far and are not cached.
func WithDeadline(d time.Duration) Option {
	return func(m *Mapper) {
		if d > 0 {
			m.deadline = d
		}
	}
}

// WithExclusions adds category hints and terms whose mentions are never mapped
func WithExclusions(categories, terms []string) Option {
	return func(m *Mapper) {
		m.filter.addCategories(categories)
		m.filter.addTerms(m.catalog.Analyzer(), terms)
	}
}

// New creates a mapper over a loaded catalog
func New(cat *catalog.Index, opts ...Option) *Mapper {
	m := &Mapper{
		catalog: cat,
		logger:  zerolog.Nop(),
		topK:    types.DefaultTopK,
		workers: runtime.NumCPU(),
		filter:  newFilter(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.engine = matching.NewEngine(cat, m.synonyms, m.engineOpts...)
	m.ranker = ranking.NewRanker(cat, m.rankerOpts...)
	if m.cache == nil {
		m.cache = cache.New(cache.DefaultCapacity, cache.DefaultShards, cache.WithObserver(m.metrics))
	}
	if m.topK > m.ranker.MaxResults() {
		m.topK = m.ranker.MaxResults()
	}
	if m.synonyms != nil {
		m.filter.addTerms(cat.Analyzer(), m.synonyms.Exclusions())
	}
	return m
}

// Catalog returns the catalog the mapper serves
func (m *Mapper) Catalog() *catalog.Index {
	return m.catalog
}

// MapConcepts maps every mention and returns results keyed by mention text.
// When the same text appears more than once the first mention's result is
// kept. Mentions are processed concurrently; the map is complete when
// MapConcepts returns.
func (m *Mapper) MapConcepts(ctx context.Context, mentions []types.ConceptMention, topK int) map[string][]types.MappingResult {
	each := m.MapEach(ctx, mentions, topK)
	out := make(map[string][]types.MappingResult, len(mentions))
	for i, mention := range mentions {
		if _, dup := out[mention.Text]; dup {
			continue
		}
		out[mention.Text] = each[i]
	}
	return out
}

// MapEach maps every mention and returns results aligned with the input
func (m *Mapper) MapEach(ctx context.Context, mentions []types.ConceptMention, topK int) [][]types.MappingResult {
	out := make([][]types.MappingResult, len(mentions))

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i := range mentions {
		g.Go(func() error {
			out[i] = m.MapConcept(ctx, mentions[i], topK)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return out
}

// MapConcept maps one mention. topK <= 0 uses the configured default; the
// result never exceeds the ranker's cached depth. The returned slice is
// owned by the caller and never nil.
func (m *Mapper) MapConcept(ctx context.Context, mention types.ConceptMention, topK int) []types.MappingResult {
	if topK <= 0 {
		topK = m.topK
	}

	normalized := m.catalog.Analyzer().Normalize(mention.Text)
	if m.filter.excludes(mention, normalized, m.catalog) {
		m.metrics.RecordLookup(metrics.OutcomeFiltered)
		m.logger.Debug().Str("concept", mention.Text).Msg("concept filtered")
		return []types.MappingResult{}
	}
	if normalized == "" {
		m.metrics.RecordLookup(metrics.OutcomeUnmapped)
		return []types.MappingResult{}
	}

	key := cache.Key{Text: normalized, Hint: strings.ToLower(strings.TrimSpace(mention.Category))}
	if cached, ok := m.cache.Get(key); ok {
		m.recordOutcome(cached)
		return truncate(cached, topK)
	}

	ranked := m.rank(ctx, mention, normalized, key)
	m.recordOutcome(ranked)
	return truncate(ranked, topK)
}

func (m *Mapper) rank(ctx context.Context, mention types.ConceptMention, normalized string, key cache.Key) []types.MappingResult {
	if m.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.deadline)
		defer cancel()
	}

	start := time.Now()
	candidates, complete := m.engine.MatchNormalized(ctx, normalized)
	ranked := m.ranker.Rank(mention, candidates, m.ranker.MaxResults())
	m.metrics.ObserveDuration(time.Since(start))
	m.metrics.RecordCandidates(candidates)

	if !complete {
		m.metrics.RecordDegraded()
		m.logger.Debug().Str("concept", mention.Text).Int("candidates", len(candidates)).
			Msg("fuzzy pass cut short by deadline, result not cached")
		return ranked
	}
	m.cache.Put(key, ranked)
	return ranked
}

func (m *Mapper) recordOutcome(results []types.MappingResult) {
	if len(results) == 0 {
		m.metrics.RecordLookup(metrics.OutcomeUnmapped)
		return
	}
	m.metrics.RecordLookup(metrics.OutcomeMapped)
}

func truncate(results []types.MappingResult, k int) []types.MappingResult {
	if len(results) > k {
		return results[:k]
	}
	return results
}

// ClearCache drops every cached ranking and resets the cache counters
func (m *Mapper) ClearCache() {
	m.cache.Clear()
}

// Stats describes the loaded data and cache occupancy
type Stats struct {
	CatalogSource  string      `json:"catalog_source"`
	CatalogEntries int         `json:"catalog_entries"`
	Vocabulary     int         `json:"vocabulary"`
	SynonymGroups  int         `json:"synonym_groups"`
	SynonymTerms   int         `json:"synonym_terms"`
	ExcludedTerms  int         `json:"excluded_terms"`
	Similarity     string      `json:"similarity"`
	Stemming       bool        `json:"stemming"`
	Cache          cache.Stats `json:"cache"`
}

// Stats returns current sizes and cache activity
func (m *Mapper) Stats() Stats {
	return Stats{
		CatalogSource:  m.catalog.Source(),
		CatalogEntries: m.catalog.Len(),
		Vocabulary:     m.catalog.VocabularySize(),
		SynonymGroups:  m.synonyms.Len(),
		SynonymTerms:   m.synonyms.TermCount(),
		ExcludedTerms:  len(m.filter.terms),
		Similarity:     m.engine.Scorer().Algorithm(),
		Stemming:       m.catalog.Analyzer().Stemming(),
		Cache:          m.cache.Stats(),
	}
}
