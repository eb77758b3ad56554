package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
)

// Config file names searched for when no explicit path is given, in order
var DefaultFileNames = []string{".conceptmap.kdl", ".conceptmap.toml"}

// Matching defaults
const (
	DefaultJaccardWeight      = 0.6
	DefaultEditWeight         = 0.4
	DefaultFuzzyThreshold     = 0.35
	DefaultMaxPostings        = 5000
	DefaultMaxFuzzyCandidates = 256
	DefaultSimilarity         = "levenshtein"
	DefaultStemMinLength      = 4
)

// Ranking and cache defaults
const (
	DefaultTopK               = 6
	DefaultCorroborationBoost = 0.05
	DefaultMaxCached          = 25
	DefaultCacheCapacity      = 10000
	DefaultCacheShards        = 16
)

type Config struct {
	Version     int         `toml:"version"`
	Catalog     Catalog     `toml:"catalog"`
	Synonyms    Synonyms    `toml:"synonyms"`
	Matching    Matching    `toml:"matching"`
	Ranking     Ranking     `toml:"ranking"`
	Cache       Cache       `toml:"cache"`
	Performance Performance `toml:"performance"`
	Log         Log         `toml:"log"`
	Filter      Filter      `toml:"filter"`
}

type Catalog struct {
	Path   string `toml:"path"`
	Format string `toml:"format"` // auto, csv, tsv, codes, order
}

type Synonyms struct {
	Paths []string `toml:"paths"` // doublestar patterns
}

type Matching struct {
	JaccardWeight      float64 `toml:"jaccard_weight"`
	EditWeight         float64 `toml:"edit_weight"`
	FuzzyThreshold     float64 `toml:"fuzzy_threshold"`
	MaxPostings        int     `toml:"max_postings"`
	MaxFuzzyCandidates int     `toml:"max_fuzzy_candidates"`
	Similarity         string  `toml:"similarity"` // levenshtein, jaro-winkler
	Stemming           bool    `toml:"stemming"`
	StemMinLength      int     `toml:"stem_min_length"`
	Fuzzy              bool    `toml:"fuzzy"`
}

type Ranking struct {
	TopK               int      `toml:"top_k"`
	CorroborationBoost float64  `toml:"corroboration_boost"`
	MaxCached          int      `toml:"max_cached"`
	Markers            []string `toml:"markers"` // empty means the built-in laterality/specificity words
}

type Cache struct {
	Capacity int `toml:"capacity"`
	Shards   int `toml:"shards"`
}

type Performance struct {
	Workers    int `toml:"workers"`     // 0 = NumCPU
	DeadlineMs int `toml:"deadline_ms"` // per-concept budget, 0 = none
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console, json
}

// Filter names concepts that must never be mapped
type Filter struct {
	ExcludeCategories []string `toml:"exclude_categories"`
	ExcludeTerms      []string `toml:"exclude_terms"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Version: 1,
		Catalog: Catalog{Format: "auto"},
		Matching: Matching{
			JaccardWeight:      DefaultJaccardWeight,
			EditWeight:         DefaultEditWeight,
			FuzzyThreshold:     DefaultFuzzyThreshold,
			MaxPostings:        DefaultMaxPostings,
			MaxFuzzyCandidates: DefaultMaxFuzzyCandidates,
			Similarity:         DefaultSimilarity,
			Stemming:           true,
			StemMinLength:      DefaultStemMinLength,
			Fuzzy:              true,
		},
		Ranking: Ranking{
			TopK:               DefaultTopK,
			CorroborationBoost: DefaultCorroborationBoost,
			MaxCached:          DefaultMaxCached,
		},
		Cache: Cache{
			Capacity: DefaultCacheCapacity,
			Shards:   DefaultCacheShards,
		},
		Log: Log{Level: "info", Format: "console"},
		Filter: Filter{
			ExcludeCategories: []string{"medication", "medications"},
		},
	}
}

// Load reads the config file at path, or searches the working directory for
// one of DefaultFileNames when path is empty. With no file found the
// defaults are returned. The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Discover(".")
	}

	cfg := Default()
	if path != "" {
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover returns the first config file from DefaultFileNames in dir, or ""
func Discover(dir string) string {
	for _, name := range DefaultFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadFile parses one config file over the defaults. Relative catalog and
// synonym paths are resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, cmerrors.NewConfigError("file", "path", path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kdl":
		cfg, err = parseKDL(string(content))
	case ".toml":
		cfg, err = parseTOML(content)
	default:
		err = fmt.Errorf("%w: config %q", cmerrors.ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, cmerrors.NewConfigError("file", "path", path, err)
	}

	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

func (c *Config) resolvePaths(base string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Catalog.Path = resolve(c.Catalog.Path)
	for i, p := range c.Synonyms.Paths {
		c.Synonyms.Paths[i] = resolve(p)
	}
}
