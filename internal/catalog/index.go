package catalog

import (
	"fmt"

	"github.com/rs/zerolog"

	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
	"github.com/standardbeagle/conceptmap/internal/textnorm"
)

// Index is the read-only, in-memory catalog
type Index struct {
	source   string
	entries  []Entry
	byCode   map[string]int32
	exact    map[string][]int32 // normalized description -> entry ids
	aliases  map[string][]int32 // description with qualifier stripped -> entry ids
	postings map[string][]int32 // content token -> ascending entry ids
	analyzer *textnorm.Analyzer
}

// Row is a raw catalog record before indexing
type Row struct {
	Code        string
	Description string
	Category    string
	Billable    *bool
	Line        int
}

type options struct {
	format   Format
	analyzer *textnorm.Analyzer
	logger   zerolog.Logger
}

// Option configures catalog loading
type Option func(*options)

// WithFormat forces a source format instead of detecting it from the path
func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithAnalyzer sets the analyzer used for descriptions. It must be the same
// analyzer the matching engine uses for concept text.
func WithAnalyzer(a *textnorm.Analyzer) Option {
	return func(o *options) { o.analyzer = a }
}

// WithLogger sets the logger for load-time warnings
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{format: FormatAuto, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.analyzer == nil {
		o.analyzer = textnorm.DefaultAnalyzer()
	}
	return o
}

// FromRows builds an index from in-memory rows. source names the origin in
// error messages.
func FromRows(source string, rows []Row, opts ...Option) (*Index, error) {
	o := buildOptions(opts)
	return build(source, rows, o)
}

func build(source string, rows []Row, o options) (*Index, error) {
	ix := &Index{
		source:   source,
		entries:  make([]Entry, 0, len(rows)),
		byCode:   make(map[string]int32, len(rows)),
		exact:    make(map[string][]int32, len(rows)),
		aliases:  make(map[string][]int32),
		postings: make(map[string][]int32),
		analyzer: o.analyzer,
	}

	skipped := 0
	for _, row := range rows {
		code := NormalizeCode(row.Code)
		if code == "" {
			skipped++
			continue
		}
		if row.Description == "" {
			o.logger.Warn().Str("code", code).Int("line", row.Line).Msg("catalog row has no description, skipping")
			skipped++
			continue
		}
		if _, dup := ix.byCode[code]; dup {
			return nil, cmerrors.NewCatalogLoadError(source, fmt.Errorf("%w: %s", cmerrors.ErrDuplicateCode, code)).WithLine(row.Line)
		}

		normalized := o.analyzer.Normalize(row.Description)
		category := row.Category
		if category == "" {
			category = Chapter(code)
		}
		billable := true
		if row.Billable != nil {
			billable = *row.Billable
		}

		id := int32(len(ix.entries))
		ix.entries = append(ix.entries, Entry{
			Code:        code,
			Description: row.Description,
			Normalized:  normalized,
			Category:    category,
			Billable:    billable,
			Tokens:      o.analyzer.ContentTokens(normalized),
		})
		ix.byCode[code] = id
	}

	if len(ix.entries) == 0 {
		return nil, cmerrors.NewCatalogLoadError(source, cmerrors.ErrEmptyCatalog)
	}

	for i := range ix.entries {
		id := int32(i)
		e := &ix.entries[i]
		if e.Normalized != "" {
			ix.exact[e.Normalized] = append(ix.exact[e.Normalized], id)
		}
		if alias := descriptionAlias(e.Normalized); alias != "" {
			ix.aliases[alias] = append(ix.aliases[alias], id)
		}
		for _, tok := range e.Tokens {
			ix.postings[tok] = append(ix.postings[tok], id)
		}
	}
	ix.yieldHeadersToAliases()

	o.logger.Info().
		Str("source", source).
		Int("entries", len(ix.entries)).
		Int("skipped", skipped).
		Int("vocabulary", len(ix.postings)).
		Msg("catalog loaded")

	return ix, nil
}

// yieldHeadersToAliases removes non-billable category headers from the exact
// map when a billable code carries the same text as an alias. "Headache"
// then resolves to R51.9 rather than the R51 header.
func (ix *Index) yieldHeadersToAliases() {
	for key, ids := range ix.exact {
		if !ix.anyBillable(ix.aliases[key]) {
			continue
		}
		kept := ids[:0]
		for _, id := range ids {
			if ix.entries[id].Billable {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(ix.exact, key)
			continue
		}
		ix.exact[key] = kept
	}
}

func (ix *Index) anyBillable(ids []int32) bool {
	for _, id := range ids {
		if ix.entries[id].Billable {
			return true
		}
	}
	return false
}

// Source returns the path or name the index was loaded from
func (ix *Index) Source() string {
	return ix.source
}

// Len returns the number of entries
func (ix *Index) Len() int {
	return len(ix.entries)
}

// VocabularySize returns the number of distinct content tokens
func (ix *Index) VocabularySize() int {
	return len(ix.postings)
}

// Analyzer returns the analyzer descriptions were indexed with
func (ix *Index) Analyzer() *textnorm.Analyzer {
	return ix.analyzer
}

// At returns the entry with the given id. ids come from Postings and
// ExactLookup and are always in range.
func (ix *Index) At(id int32) *Entry {
	return &ix.entries[id]
}

// Lookup finds an entry by code. The code is normalized first, so "r519"
// finds "R51.9".
func (ix *Index) Lookup(code string) (*Entry, bool) {
	id, ok := ix.byCode[NormalizeCode(code)]
	if !ok {
		return nil, false
	}
	return &ix.entries[id], true
}

// ID returns the entry id for a code, normalizing it like Lookup
func (ix *Index) ID(code string) (int32, bool) {
	id, ok := ix.byCode[NormalizeCode(code)]
	return id, ok
}

// ExactLookup returns the ids of entries whose normalized description equals
// normalized. Primary descriptions win over qualifier-stripped aliases,
// except non-billable headers, which yield to a billable alias.
func (ix *Index) ExactLookup(normalized string) []int32 {
	if normalized == "" {
		return nil
	}
	if ids, ok := ix.exact[normalized]; ok {
		return ids
	}
	return ix.aliases[normalized]
}

// Postings returns the ascending ids of entries containing token. The slice
// is shared; callers must not modify it.
func (ix *Index) Postings(token string) []int32 {
	return ix.postings[token]
}

// Each calls fn for every entry in load order until fn returns false
func (ix *Index) Each(fn func(*Entry) bool) {
	for i := range ix.entries {
		if !fn(&ix.entries[i]) {
			return
		}
	}
}
