package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	"github.com/standardbeagle/conceptmap/internal/mcp"
	"github.com/standardbeagle/conceptmap/internal/types"
	"github.com/standardbeagle/conceptmap/internal/version"
)

var errNoConcepts = errors.New("no concepts given: pass them as arguments or with --file")

// signalContext cancels on SIGINT/SIGTERM
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// collectMentions merges --file contents with positional arguments
func collectMentions(c *cli.Context) ([]types.ConceptMention, error) {
	var mentions []types.ConceptMention
	if path := c.String("file"); path != "" {
		fromFile, err := readMentionsFile(path)
		if err != nil {
			return nil, err
		}
		mentions = append(mentions, fromFile...)
	}
	category := c.String("category")
	for _, arg := range c.Args().Slice() {
		mentions = append(mentions, types.ConceptMention{Text: arg, Category: category})
	}
	if len(mentions) == 0 {
		return nil, errNoConcepts
	}
	return mentions, nil
}

// readMentionsFile reads a JSON array of mentions (or of strings) from .json
// files and one concept per line otherwise. Blank lines and '#' comments are
// skipped.
func readMentionsFile(path string) ([]types.ConceptMention, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open concept file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeMentions(f)
	}

	var mentions []types.ConceptMention
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mentions = append(mentions, types.ConceptMention{Text: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read concept file: %w", err)
	}
	return mentions, nil
}

func decodeMentions(r io.Reader) ([]types.ConceptMention, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse concept file: %w", err)
	}
	mentions := make([]types.ConceptMention, 0, len(raw))
	for _, item := range raw {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			mentions = append(mentions, types.ConceptMention{Text: text})
			continue
		}
		var m types.ConceptMention
		if err := json.Unmarshal(item, &m); err != nil {
			return nil, fmt.Errorf("failed to parse concept %s: %w", string(item), err)
		}
		mentions = append(mentions, m)
	}
	return mentions, nil
}

type conceptOutput struct {
	Concept  string                `json:"concept"`
	Category string                `json:"category,omitempty"`
	Negated  bool                  `json:"negated,omitempty"`
	Results  []types.MappingResult `json:"results"`
}

func mapCommand(c *cli.Context) error {
	mentions, err := collectMentions(c)
	if err != nil {
		return err
	}
	s, err := setup(c, false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()
	each := s.mapper.MapEach(ctx, mentions, c.Int("top-k"))

	out := make([]conceptOutput, len(mentions))
	for i, m := range mentions {
		out[i] = conceptOutput{Concept: m.Text, Category: m.Category, Negated: m.Negated, Results: each[i]}
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, out)
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CONCEPT\tCODE\tCONFIDENCE\tSTRATEGIES\tDESCRIPTION")
	for _, o := range out {
		if len(o.Results) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\t(no match)\n", o.Concept)
			continue
		}
		for _, r := range o.Results {
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\t%s\n", o.Concept, r.Code, r.Confidence, strategyList(r.Strategies), r.Description)
		}
	}
	return w.Flush()
}

func strategyList(ss []types.Strategy) string {
	names := make([]string, len(ss))
	for i, s := range ss {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}

func lookupCommand(c *cli.Context) error {
	codes := c.Args().Slice()
	if len(codes) == 0 {
		return errors.New("no codes given")
	}
	s, err := setup(c, false)
	if err != nil {
		return err
	}

	var found []*catalog.Entry
	var missing []string
	for _, code := range codes {
		if e, ok := s.mapper.Catalog().Lookup(code); ok {
			found = append(found, e)
		} else {
			missing = append(missing, catalog.NormalizeCode(code))
		}
	}

	if c.Bool("json") {
		type entryOutput struct {
			Code        string `json:"code"`
			Description string `json:"description"`
			Category    string `json:"category"`
			Billable    bool   `json:"billable"`
		}
		out := make([]entryOutput, len(found))
		for i, e := range found {
			out[i] = entryOutput{Code: e.Code, Description: e.Description, Category: e.Category, Billable: e.Billable}
		}
		if err := writeJSON(c.App.Writer, out); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tBILLABLE\tCATEGORY\tDESCRIPTION")
		for _, e := range found {
			fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", e.Code, e.Billable, e.Category, e.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("not found in catalog: %s", strings.Join(missing, ", "))
	}
	return nil
}

func validateCommand(c *cli.Context) error {
	codes := c.Args().Slice()
	if len(codes) == 0 {
		return errors.New("no codes given")
	}
	s, err := setup(c, false)
	if err != nil {
		return err
	}

	results := make([]catalog.Validation, len(codes))
	invalid := 0
	for i, code := range codes {
		results[i] = s.mapper.Catalog().Validate(code)
		if !results[i].Valid {
			invalid++
		}
	}

	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, results); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tVALID\tEXISTS\tBILLABLE\tWARNINGS")
		for _, v := range results {
			fmt.Fprintf(w, "%s\t%t\t%t\t%t\t%s\n", v.Code, v.Valid, v.Exists, v.Billable, strings.Join(v.Warnings, "; "))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d codes invalid", invalid, len(codes))
	}
	return nil
}

func benchCommand(c *cli.Context) error {
	mentions, err := collectMentions(c)
	if err != nil {
		return err
	}
	iterations := c.Int("iterations")
	if iterations < 1 {
		return fmt.Errorf("--iterations must be at least 1, got %d", iterations)
	}
	s, err := setup(c, false)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PASS\tCONCEPTS\tMAPPED\tTOTAL\tPER CONCEPT")
	for i := 1; i <= iterations; i++ {
		if c.Bool("cold") {
			s.mapper.ClearCache()
		}
		start := time.Now()
		each := s.mapper.MapEach(ctx, mentions, c.Int("top-k"))
		elapsed := time.Since(start)

		mapped := 0
		for _, r := range each {
			if len(r) > 0 {
				mapped++
			}
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", i, len(mentions), mapped,
			elapsed.Round(time.Microsecond), (elapsed / time.Duration(len(mentions))).Round(time.Microsecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stats := s.mapper.Stats()
	fmt.Fprintf(c.App.Writer, "\ncatalog: %s\n", stats.CatalogSource)
	fmt.Fprintf(c.App.Writer, "catalog entries: %d, vocabulary: %d, synonym groups: %d\n",
		stats.CatalogEntries, stats.Vocabulary, stats.SynonymGroups)
	fmt.Fprintf(c.App.Writer, "cache: %d/%d entries, %d hits, %d misses, %d evictions, hit rate %.2f (%s)\n",
		stats.Cache.Entries, stats.Cache.Capacity, stats.Cache.Hits, stats.Cache.Misses,
		stats.Cache.Evictions, stats.Cache.HitRate, stats.Cache.Status)

	if c.Bool("metrics") {
		fmt.Fprintln(c.App.Writer)
		return writeMetrics(c.App.Writer, s.registry)
	}
	return nil
}

// writeMetrics dumps every registered family in Prometheus text format
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func versionCommand(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, version.FullInfo())
	fmt.Fprintf(c.App.Writer, "build: %s\n", version.BuildID())
	return nil
}

func mcpCommand(c *cli.Context) error {
	s, err := setup(c, true)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()

	server := mcp.NewServer(s.mapper, s.logger)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}
	s.logger.Info().Msg("MCP server stopped")
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
