package mapper

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/standardbeagle/conceptmap/internal/cache"
	"github.com/standardbeagle/conceptmap/internal/catalog"
	"github.com/standardbeagle/conceptmap/internal/config"
	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
	"github.com/standardbeagle/conceptmap/internal/logging"
	"github.com/standardbeagle/conceptmap/internal/matching"
	"github.com/standardbeagle/conceptmap/internal/metrics"
	"github.com/standardbeagle/conceptmap/internal/ranking"
	"github.com/standardbeagle/conceptmap/internal/similarity"
	"github.com/standardbeagle/conceptmap/internal/synonym"
	"github.com/standardbeagle/conceptmap/internal/textnorm"
)

// FromConfig loads the catalog and synonyms named by cfg and wires a Mapper.
// A catalog failure is returned as *errors.CatalogLoadError. A synonym
// failure is logged and the mapper runs with the synonym strategy disabled.
// mt may be nil.
func FromConfig(cfg *config.Config, logger zerolog.Logger, mt *metrics.Metrics) (*Mapper, error) {
	if cfg.Catalog.Path == "" {
		return nil, cmerrors.NewCatalogLoadError("", cmerrors.ErrNoSources)
	}

	format, err := catalog.ParseFormat(cfg.Catalog.Format)
	if err != nil {
		return nil, cmerrors.NewCatalogLoadError(cfg.Catalog.Path, err)
	}

	analyzer := textnorm.NewAnalyzer(textnorm.NewClinicalStemmer(cfg.Matching.Stemming, cfg.Matching.StemMinLength))
	cat, err := catalog.Load(cfg.Catalog.Path,
		catalog.WithFormat(format),
		catalog.WithAnalyzer(analyzer),
		catalog.WithLogger(logging.Component(logger, "catalog")),
	)
	if err != nil {
		return nil, err
	}

	var syn *synonym.Index
	if len(cfg.Synonyms.Paths) > 0 {
		syn, err = synonym.Load(cat, cfg.Synonyms.Paths,
			synonym.WithLogger(logging.Component(logger, "synonym")),
		)
		if err != nil {
			var synErr *cmerrors.SynonymLoadError
			if !errors.As(err, &synErr) || !synErr.IsRecoverable() {
				return nil, err
			}
			logger.Warn().Err(err).Msg("synonym load failed, continuing without synonym matching")
			syn = nil
		}
	}

	scorer := similarity.NewScorer(cfg.Matching.JaccardWeight, cfg.Matching.EditWeight, cfg.Matching.Similarity)
	resultCache := cache.New(cfg.Cache.Capacity, cfg.Cache.Shards, cache.WithObserver(mt))

	return New(cat,
		WithSynonyms(syn),
		WithCache(resultCache),
		WithMetrics(mt),
		WithLogger(logging.Component(logger, "mapper")),
		WithEngineOptions(
			matching.WithScorer(scorer),
			matching.WithConfig(matching.Config{
				FuzzyThreshold:     cfg.Matching.FuzzyThreshold,
				MaxPostings:        cfg.Matching.MaxPostings,
				MaxFuzzyCandidates: cfg.Matching.MaxFuzzyCandidates,
				DisableFuzzy:       !cfg.Matching.Fuzzy,
			}),
		),
		WithRankerOptions(
			ranking.WithBoost(cfg.Ranking.CorroborationBoost),
			ranking.WithMaxResults(cfg.Ranking.MaxCached),
			ranking.WithMarkers(cfg.Ranking.Markers),
		),
		WithDefaultTopK(cfg.Ranking.TopK),
		WithWorkers(cfg.Performance.Workers),
		WithDeadline(time.Duration(cfg.Performance.DeadlineMs)*time.Millisecond),
		WithExclusions(cfg.Filter.ExcludeCategories, cfg.Filter.ExcludeTerms),
	), nil
}
