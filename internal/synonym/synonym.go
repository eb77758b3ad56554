package synonym

import (
	"github.com/rs/zerolog"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	"github.com/standardbeagle/conceptmap/internal/textnorm"
)

// RawGroup is a synonym group as read from a source, before its codes are
// resolved against the catalog.
type RawGroup struct {
	CanonicalKey string   `json:"canonical_condition"`
	Terms        []string `json:"synonym_terms"`
	LinkedCodes  []string `json:"linked_codes"`
}

// Document is the parsed content of one synonym source
type Document struct {
	Source     string
	Groups     []RawGroup
	Exclusions []string // medication terms that must never be mapped
}

// Group is a resolved synonym group
type Group struct {
	CanonicalKey string
	Terms        []string // normalized, canonical key first
	Links        []int32  // catalog entry ids in configured order
}

// Index answers term -> group lookups
type Index struct {
	groups     []Group
	terms      map[string]int32 // normalized term -> group id
	stems      map[string]int32 // stem key -> group id
	exclusions []string
	analyzer   *textnorm.Analyzer
}

type options struct {
	analyzer *textnorm.Analyzer
	logger   zerolog.Logger
}

// Option configures Build and Load
type Option func(*options)

// WithAnalyzer sets the analyzer terms are normalized with. It must match the
// catalog's analyzer.
func WithAnalyzer(a *textnorm.Analyzer) Option {
	return func(o *options) { o.analyzer = a }
}

// WithLogger sets the logger for dropped codes and term conflicts
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(cat *catalog.Index, opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.analyzer == nil {
		o.analyzer = cat.Analyzer()
	}
	return o
}

// Build resolves documents against the catalog. It never fails: codes missing
// from the catalog are dropped with a warning, and a term claimed by two
// groups stays with the first.
func Build(cat *catalog.Index, docs []*Document, opts ...Option) *Index {
	o := buildOptions(cat, opts)
	ix := &Index{
		terms:    make(map[string]int32),
		stems:    make(map[string]int32),
		analyzer: o.analyzer,
	}

	seenExclusion := make(map[string]struct{})
	for _, doc := range docs {
		for _, raw := range doc.Groups {
			ix.addGroup(cat, doc.Source, raw, o)
		}
		for _, term := range doc.Exclusions {
			norm := o.analyzer.Normalize(term)
			if norm == "" {
				continue
			}
			if _, dup := seenExclusion[norm]; dup {
				continue
			}
			seenExclusion[norm] = struct{}{}
			ix.exclusions = append(ix.exclusions, norm)
		}
	}

	o.logger.Info().
		Int("groups", len(ix.groups)).
		Int("terms", len(ix.terms)).
		Int("exclusions", len(ix.exclusions)).
		Msg("synonyms loaded")
	return ix
}

func (ix *Index) addGroup(cat *catalog.Index, source string, raw RawGroup, o options) {
	key := o.analyzer.Normalize(raw.CanonicalKey)
	if key == "" {
		o.logger.Warn().Str("source", source).Msg("synonym group without canonical key, skipping")
		return
	}

	links := make([]int32, 0, len(raw.LinkedCodes))
	seen := make(map[int32]struct{}, len(raw.LinkedCodes))
	for _, code := range raw.LinkedCodes {
		id, ok := cat.ID(code)
		if !ok {
			o.logger.Warn().Str("source", source).Str("group", key).Str("code", code).
				Msg("synonym code not in catalog, dropping")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, id)
	}
	if len(raw.LinkedCodes) == 0 {
		// Unlinked groups resolve through the catalog's own description of the key
		links = append(links, cat.ExactLookup(key)...)
	}
	if len(links) == 0 {
		o.logger.Warn().Str("source", source).Str("group", key).Msg("synonym group links no catalog codes, skipping")
		return
	}

	gid := int32(len(ix.groups))
	group := Group{CanonicalKey: key, Links: links}
	for _, term := range append([]string{raw.CanonicalKey}, raw.Terms...) {
		norm := o.analyzer.Normalize(term)
		if norm == "" {
			continue
		}
		if owner, taken := ix.terms[norm]; taken {
			if owner != gid {
				o.logger.Warn().Str("term", norm).Str("kept", ix.groups[owner].CanonicalKey).Str("ignored", key).
					Msg("synonym term claimed by two groups")
			}
			continue
		}
		ix.terms[norm] = gid
		group.Terms = append(group.Terms, norm)
		if stem := o.analyzer.StemKey(norm); stem != "" {
			if _, taken := ix.stems[stem]; !taken {
				ix.stems[stem] = gid
			}
		}
	}
	if len(group.Terms) == 0 {
		return
	}
	ix.groups = append(ix.groups, group)
}

// Lookup finds the group for a normalized term. An exact term match wins;
// otherwise the stemmed, order-insensitive form is tried. A nil Index has no
// groups.
func (ix *Index) Lookup(normalized string) (*Group, bool) {
	if ix == nil || normalized == "" {
		return nil, false
	}
	if gid, ok := ix.terms[normalized]; ok {
		return &ix.groups[gid], true
	}
	if stem := ix.analyzer.StemKey(normalized); stem != "" {
		if gid, ok := ix.stems[stem]; ok {
			return &ix.groups[gid], true
		}
	}
	return nil, false
}

// Each calls fn for every group in load order until fn returns false
func (ix *Index) Each(fn func(*Group) bool) {
	if ix == nil {
		return
	}
	for i := range ix.groups {
		if !fn(&ix.groups[i]) {
			return
		}
	}
}

// Len returns the number of groups
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.groups)
}

// TermCount returns the number of distinct normalized terms
func (ix *Index) TermCount() int {
	if ix == nil {
		return 0
	}
	return len(ix.terms)
}

// Exclusions returns the normalized medication exclusion terms. The slice is
// shared; callers must not modify it.
func (ix *Index) Exclusions() []string {
	if ix == nil {
		return nil
	}
	return ix.exclusions
}
