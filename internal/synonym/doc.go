// Package synonym maps informal clinical terms ("sugar sickness", "htn") to
// canonical condition keys and from there to catalog codes.
//
// Groups reference catalog entries by id, never the reverse, so the catalog
// stays unaware of synonyms. An Index is immutable once built.
package synonym
