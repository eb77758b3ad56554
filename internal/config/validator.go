package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/rs/zerolog"

	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
	"github.com/standardbeagle/conceptmap/internal/similarity"
	"github.com/standardbeagle/conceptmap/internal/textnorm"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Returns a *errors.ConfigError naming the first invalid section.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateCatalogConfig(&cfg.Catalog); err != nil {
		return err
	}
	if err := v.validateMatchingConfig(&cfg.Matching); err != nil {
		return err
	}
	if err := v.validateRankingConfig(&cfg.Ranking); err != nil {
		return err
	}
	if err := v.validateCacheConfig(&cfg.Cache); err != nil {
		return err
	}
	if err := v.validatePerformanceConfig(&cfg.Performance); err != nil {
		return err
	}
	if err := v.validateLogConfig(&cfg.Log); err != nil {
		return err
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateCatalogConfig(c *Catalog) error {
	switch strings.ToLower(c.Format) {
	case "", "auto", "csv", "tsv", "codes", "order":
		return nil
	default:
		return cmerrors.NewConfigError("catalog", "format", c.Format,
			errors.New("must be one of auto, csv, tsv, codes, order"))
	}
}

func (v *Validator) validateMatchingConfig(m *Matching) error {
	if m.JaccardWeight < 0 || m.JaccardWeight > 1 {
		return cmerrors.NewConfigError("matching", "jaccard_weight", fmt.Sprint(m.JaccardWeight),
			errors.New("must be between 0 and 1"))
	}
	if m.EditWeight < 0 || m.EditWeight > 1 {
		return cmerrors.NewConfigError("matching", "edit_weight", fmt.Sprint(m.EditWeight),
			errors.New("must be between 0 and 1"))
	}
	if m.JaccardWeight+m.EditWeight == 0 {
		return cmerrors.NewConfigError("matching", "jaccard_weight", "0",
			errors.New("jaccard_weight and edit_weight cannot both be zero"))
	}
	if m.FuzzyThreshold <= 0 || m.FuzzyThreshold > 1 {
		return cmerrors.NewConfigError("matching", "fuzzy_threshold", fmt.Sprint(m.FuzzyThreshold),
			errors.New("must be in (0, 1]"))
	}
	if m.MaxPostings < 0 {
		return cmerrors.NewConfigError("matching", "max_postings", fmt.Sprint(m.MaxPostings),
			errors.New("cannot be negative"))
	}
	if m.MaxFuzzyCandidates < 0 {
		return cmerrors.NewConfigError("matching", "max_fuzzy_candidates", fmt.Sprint(m.MaxFuzzyCandidates),
			errors.New("cannot be negative"))
	}
	if err := similarity.NewScorer(m.JaccardWeight, m.EditWeight, m.Similarity).ValidateConfig(); err != nil {
		return cmerrors.NewConfigError("matching", "similarity", m.Similarity, err)
	}
	if err := textnorm.NewClinicalStemmer(m.Stemming, m.StemMinLength).ValidateConfig(); err != nil {
		return cmerrors.NewConfigError("matching", "stem_min_length", fmt.Sprint(m.StemMinLength), err)
	}
	return nil
}

func (v *Validator) validateRankingConfig(r *Ranking) error {
	if r.TopK < 0 {
		return cmerrors.NewConfigError("ranking", "top_k", fmt.Sprint(r.TopK), errors.New("cannot be negative"))
	}
	if r.MaxCached < 0 {
		return cmerrors.NewConfigError("ranking", "max_cached", fmt.Sprint(r.MaxCached), errors.New("cannot be negative"))
	}
	if r.MaxCached > 0 && r.TopK > r.MaxCached {
		return cmerrors.NewConfigError("ranking", "top_k", fmt.Sprint(r.TopK),
			fmt.Errorf("cannot exceed max_cached (%d)", r.MaxCached))
	}
	if r.CorroborationBoost < 0 || r.CorroborationBoost > 1 {
		return cmerrors.NewConfigError("ranking", "corroboration_boost", fmt.Sprint(r.CorroborationBoost),
			errors.New("must be between 0 and 1"))
	}
	return nil
}

func (v *Validator) validateCacheConfig(c *Cache) error {
	if c.Capacity < 0 {
		return cmerrors.NewConfigError("cache", "capacity", fmt.Sprint(c.Capacity), errors.New("cannot be negative"))
	}
	if c.Shards < 0 {
		return cmerrors.NewConfigError("cache", "shards", fmt.Sprint(c.Shards), errors.New("cannot be negative"))
	}
	return nil
}

func (v *Validator) validatePerformanceConfig(p *Performance) error {
	// Workers: 0 means auto-detect (set by smart defaults)
	if p.Workers < 0 {
		return cmerrors.NewConfigError("performance", "workers", fmt.Sprint(p.Workers), errors.New("cannot be negative"))
	}
	if p.DeadlineMs < 0 {
		return cmerrors.NewConfigError("performance", "deadline_ms", fmt.Sprint(p.DeadlineMs), errors.New("cannot be negative"))
	}
	return nil
}

func (v *Validator) validateLogConfig(l *Log) error {
	if l.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(l.Level)); err != nil {
			return cmerrors.NewConfigError("log", "level", l.Level, err)
		}
	}
	switch strings.ToLower(l.Format) {
	case "", "console", "json":
		return nil
	default:
		return cmerrors.NewConfigError("log", "format", l.Format, errors.New("must be console or json"))
	}
}

// setSmartDefaults fills zero values with defaults based on system capabilities
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.Workers == 0 {
		cfg.Performance.Workers = runtime.NumCPU()
	}
	if cfg.Ranking.MaxCached == 0 {
		cfg.Ranking.MaxCached = DefaultMaxCached
	}
	if cfg.Ranking.TopK == 0 {
		cfg.Ranking.TopK = min(DefaultTopK, cfg.Ranking.MaxCached)
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = DefaultCacheCapacity
	}
	if cfg.Cache.Shards == 0 {
		cfg.Cache.Shards = DefaultCacheShards
	}
	if cfg.Matching.Similarity == "" {
		cfg.Matching.Similarity = DefaultSimilarity
	}
	if cfg.Matching.MaxPostings == 0 {
		cfg.Matching.MaxPostings = DefaultMaxPostings
	}
	if cfg.Matching.MaxFuzzyCandidates == 0 {
		cfg.Matching.MaxFuzzyCandidates = DefaultMaxFuzzyCandidates
	}
	if cfg.Catalog.Format == "" {
		cfg.Catalog.Format = "auto"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
