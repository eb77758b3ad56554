package config

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
)

func TestValidateDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, runtime.NumCPU(), cfg.Performance.Workers)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		section string
		field   string
	}{
		{"catalog format", func(c *Config) { c.Catalog.Format = "xlsx" }, "catalog", "format"},
		{"jaccard weight", func(c *Config) { c.Matching.JaccardWeight = 1.5 }, "matching", "jaccard_weight"},
		{"edit weight", func(c *Config) { c.Matching.EditWeight = -0.1 }, "matching", "edit_weight"},
		{"zero weights", func(c *Config) { c.Matching.JaccardWeight, c.Matching.EditWeight = 0, 0 }, "matching", "jaccard_weight"},
		{"threshold zero", func(c *Config) { c.Matching.FuzzyThreshold = 0 }, "matching", "fuzzy_threshold"},
		{"threshold above one", func(c *Config) { c.Matching.FuzzyThreshold = 1.2 }, "matching", "fuzzy_threshold"},
		{"max postings", func(c *Config) { c.Matching.MaxPostings = -1 }, "matching", "max_postings"},
		{"similarity", func(c *Config) { c.Matching.Similarity = "cosine" }, "matching", "similarity"},
		{"stem min length", func(c *Config) { c.Matching.StemMinLength = -2 }, "matching", "stem_min_length"},
		{"top k negative", func(c *Config) { c.Ranking.TopK = -1 }, "ranking", "top_k"},
		{"top k above cache depth", func(c *Config) { c.Ranking.TopK = 30 }, "ranking", "top_k"},
		{"boost", func(c *Config) { c.Ranking.CorroborationBoost = 2 }, "ranking", "corroboration_boost"},
		{"cache capacity", func(c *Config) { c.Cache.Capacity = -5 }, "cache", "capacity"},
		{"workers", func(c *Config) { c.Performance.Workers = -1 }, "performance", "workers"},
		{"deadline", func(c *Config) { c.Performance.DeadlineMs = -1 }, "performance", "deadline_ms"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log", "level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log", "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := ValidateConfig(cfg)
			require.Error(t, err)

			var cfgErr *cmerrors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.section, cfgErr.Section)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestSmartDefaults(t *testing.T) {
	cfg := &Config{
		Matching: Matching{JaccardWeight: 0.5, EditWeight: 0.5, FuzzyThreshold: 0.3},
		Ranking:  Ranking{MaxCached: 4},
	}
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, 4, cfg.Ranking.TopK, "default top-k capped at max_cached")
	assert.Equal(t, DefaultCacheCapacity, cfg.Cache.Capacity)
	assert.Equal(t, DefaultCacheShards, cfg.Cache.Shards)
	assert.Equal(t, DefaultSimilarity, cfg.Matching.Similarity)
	assert.Equal(t, DefaultMaxPostings, cfg.Matching.MaxPostings)
	assert.Equal(t, "auto", cfg.Catalog.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Positive(t, cfg.Performance.Workers)
}
