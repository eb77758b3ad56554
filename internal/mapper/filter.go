package mapper

import (
	"strings"

	"github.com/standardbeagle/conceptmap/internal/textnorm"
	"github.com/standardbeagle/conceptmap/internal/types"
)

// filter drops mentions that must not be mapped to diagnosis codes:
// negated findings, medication mentions and excluded terms
type filter struct {
	categories map[string]struct{}
	terms      []string // normalized
}

func newFilter() *filter {
	f := &filter{categories: make(map[string]struct{})}
	f.addCategories([]string{"medication", "medications"})
	return f
}

func (f *filter) addCategories(categories []string) {
	for _, c := range categories {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			f.categories[c] = struct{}{}
		}
	}
}

func (f *filter) addTerms(a *textnorm.Analyzer, terms []string) {
	for _, t := range terms {
		norm := a.Normalize(t)
		if norm == "" || f.hasTerm(norm) {
			continue
		}
		f.terms = append(f.terms, norm)
	}
}

func (f *filter) hasTerm(norm string) bool {
	for _, t := range f.terms {
		if t == norm {
			return true
		}
	}
	return false
}

// exactLookuper is the part of the catalog the filter consults
type exactLookuper interface {
	ExactLookup(normalized string) []int32
}

// excludes reports whether the mention should map to nothing. Terms match
// on word boundaries: "aspirin" excludes "aspirin allergy" but not "aspirinate".
// Text that is itself a catalog description is never excluded by term.
func (f *filter) excludes(mention types.ConceptMention, normalized string, cat exactLookuper) bool {
	if mention.Negated {
		return true
	}
	if _, ok := f.categories[strings.ToLower(strings.TrimSpace(mention.Category))]; ok {
		return true
	}
	if normalized == "" || len(f.terms) == 0 {
		return false
	}
	if len(cat.ExactLookup(normalized)) > 0 {
		return false
	}
	padded := " " + normalized + " "
	for _, t := range f.terms {
		if strings.Contains(padded, " "+t+" ") {
			return true
		}
	}
	return false
}
