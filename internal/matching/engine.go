package matching

import (
	"context"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	"github.com/standardbeagle/conceptmap/internal/similarity"
	"github.com/standardbeagle/conceptmap/internal/synonym"
	"github.com/standardbeagle/conceptmap/internal/types"
)

// Raw scores of the precise strategies
const (
	ExactScore   = 1.0
	SynonymScore = 0.9
)

// Fuzzy strategy defaults
const (
	DefaultFuzzyThreshold     = 0.35
	DefaultMaxPostings        = 5000 // tokens in more entries than this do not seed candidates
	DefaultMaxFuzzyCandidates = 256  // entries per concept that get an edit-distance pass
)

// Config holds fuzzy strategy tuning
type Config struct {
	FuzzyThreshold     float64
	MaxPostings        int
	MaxFuzzyCandidates int
	DisableFuzzy       bool
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:     DefaultFuzzyThreshold,
		MaxPostings:        DefaultMaxPostings,
		MaxFuzzyCandidates: DefaultMaxFuzzyCandidates,
	}
}

// Engine matches concepts against a catalog and an optional synonym index.
// It holds only read-only state and is safe for concurrent use.
type Engine struct {
	catalog  *catalog.Index
	synonyms *synonym.Index
	scorer   *similarity.Scorer
	cfg      Config
}

// Option configures an Engine
type Option func(*Engine)

// WithScorer sets the fuzzy similarity scorer
func WithScorer(s *similarity.Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithConfig replaces the fuzzy tuning. Zero values fall back to defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		def := DefaultConfig()
		if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
			cfg.FuzzyThreshold = def.FuzzyThreshold
		}
		if cfg.MaxPostings <= 0 {
			cfg.MaxPostings = def.MaxPostings
		}
		if cfg.MaxFuzzyCandidates <= 0 {
			cfg.MaxFuzzyCandidates = def.MaxFuzzyCandidates
		}
		e.cfg = cfg
	}
}

// NewEngine creates an engine. synonyms may be nil, which disables the
// synonym strategy.
func NewEngine(cat *catalog.Index, synonyms *synonym.Index, opts ...Option) *Engine {
	e := &Engine{
		catalog:  cat,
		synonyms: synonyms,
		scorer:   similarity.DefaultScorer(),
		cfg:      DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scorer returns the fuzzy similarity scorer
func (e *Engine) Scorer() *similarity.Scorer {
	return e.scorer
}

// Match normalizes the concept text and runs every strategy.
// See MatchNormalized.
func (e *Engine) Match(ctx context.Context, concept types.ConceptMention) ([]types.MatchCandidate, bool) {
	return e.MatchNormalized(ctx, e.catalog.Analyzer().Normalize(concept.Text))
}

// MatchNormalized runs Exact, Synonym and Fuzzy in that order against
// already normalized text. It never fails; an unmatched concept yields no
// candidates. complete is false when ctx expired during the fuzzy pass, in
// which case the candidates found so far are returned.
func (e *Engine) MatchNormalized(ctx context.Context, normalized string) (candidates []types.MatchCandidate, complete bool) {
	if normalized == "" {
		return nil, true
	}

	candidates = e.matchExact(normalized, candidates)
	candidates = e.matchSynonym(normalized, candidates)
	if e.cfg.DisableFuzzy {
		return candidates, true
	}
	return e.matchFuzzy(ctx, normalized, candidates)
}

func (e *Engine) matchExact(normalized string, out []types.MatchCandidate) []types.MatchCandidate {
	for _, id := range e.catalog.ExactLookup(normalized) {
		entry := e.catalog.At(id)
		out = append(out, types.MatchCandidate{
			Code:        entry.Code,
			Strategy:    types.StrategyExact,
			RawScore:    ExactScore,
			MatchedText: entry.Description,
		})
	}
	return out
}

func (e *Engine) matchSynonym(normalized string, out []types.MatchCandidate) []types.MatchCandidate {
	group, ok := e.synonyms.Lookup(normalized)
	if !ok {
		return out
	}
	for _, id := range group.Links {
		out = append(out, types.MatchCandidate{
			Code:        e.catalog.At(id).Code,
			Strategy:    types.StrategySynonym,
			RawScore:    SynonymScore,
			MatchedText: group.CanonicalKey,
		})
	}
	return out
}
