package main

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/conceptmap/internal/config"
	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
	"github.com/standardbeagle/conceptmap/internal/logging"
	"github.com/standardbeagle/conceptmap/internal/mapper"
	"github.com/standardbeagle/conceptmap/internal/metrics"
	"github.com/standardbeagle/conceptmap/internal/version"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 when the catalog could not be loaded, 1 otherwise
func exitCode(err error) int {
	if cmerrors.IsFatal(err) {
		return 2
	}
	return 1
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   "conceptmap",
		Usage:                  "Map clinical concept mentions to ICD-10-CM codes",
		Version:                version.Version,
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.kdl or .toml); searches for .conceptmap.kdl/.conceptmap.toml when empty",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Code catalog file (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "synonyms",
				Usage: "Synonym file or glob, repeatable (e.g., --synonyms 'mappings/**/*.json')",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: console, json",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent lookups per batch (0 = config or NumCPU)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "map",
				Aliases:   []string{"m"},
				Usage:     "Map concept mentions to ranked codes",
				ArgsUsage: "<concept>...",
				Flags: []cli.Flag{
					topKFlag(),
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category hint applied to every argument (symptom, condition, laterality, ...)",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read concepts from a file: JSON array of mentions, or one concept per line",
					},
					jsonFlag(),
				},
				Action: mapCommand,
			},
			{
				Name:      "lookup",
				Aliases:   []string{"l"},
				Usage:     "Show catalog entries for codes",
				ArgsUsage: "<code>...",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    lookupCommand,
			},
			{
				Name:      "validate",
				Usage:     "Check code format, catalog membership and billability",
				ArgsUsage: "<code>...",
				Flags:     []cli.Flag{jsonFlag()},
				Action:    validateCommand,
			},
			{
				Name:      "bench",
				Usage:     "Map a concept batch repeatedly and report latency and cache behavior",
				ArgsUsage: "<concept>...",
				Flags: []cli.Flag{
					topKFlag(),
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read the batch from a file",
					},
					&cli.IntFlag{
						Name:    "iterations",
						Aliases: []string{"n"},
						Usage:   "Number of passes over the batch",
						Value:   2,
					},
					&cli.BoolFlag{
						Name:  "cold",
						Usage: "Clear the result cache before every pass",
					},
					&cli.BoolFlag{
						Name:  "metrics",
						Usage: "Print collected Prometheus metrics after the run",
					},
				},
				Action: benchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve map_concepts, lookup_code, validate_code and catalog_stats over MCP stdio",
				Action: mcpCommand,
			},
			{
				Name:   "version",
				Usage:  "Print version, commit and build fingerprint",
				Action: versionCommand,
			},
		},
	}
}

func topKFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "top-k",
		Aliases: []string{"k"},
		Usage:   "Maximum codes per concept (0 = config default)",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "json",
		Aliases: []string{"j"},
		Usage:   "Output as JSON",
	}
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if p := c.String("catalog"); p != "" {
		cfg.Catalog.Path = p
	}
	if patterns := c.StringSlice("synonyms"); len(patterns) > 0 {
		cfg.Synonyms.Paths = patterns
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if f := c.String("log-format"); f != "" {
		cfg.Log.Format = f
	}
	if w := c.Int("workers"); w > 0 {
		cfg.Performance.Workers = w
	}
	if k := c.Int("top-k"); k > 0 {
		cfg.Ranking.TopK = k
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// session bundles what every command needs after startup
type session struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	mapper   *mapper.Mapper
}

func setup(c *cli.Context, mcpMode bool) (*session, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}

	opts := logging.FromConfig(cfg.Log)
	opts.Output = c.App.ErrWriter
	opts.MCPMode = mcpMode
	logger := logging.New(opts)

	reg := prometheus.NewRegistry()
	m, err := mapper.FromConfig(cfg, logger, metrics.New(reg))
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("catalog", cfg.Catalog.Path).
		Int("entries", m.Catalog().Len()).
		Msg("mapper ready")
	return &session{cfg: cfg, logger: logger, registry: reg, mapper: m}, nil
}
