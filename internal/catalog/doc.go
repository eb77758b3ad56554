// Package catalog loads the diagnostic code table once and serves read-only
// lookups against it.
//
// An Index holds every catalog entry plus two derived structures: an exact map
// from normalized description to entries, and an inverted index from content
// token to the ids of entries containing that token. Both are built in Load and
// never mutated afterwards, so an *Index can be shared by any number of
// goroutines without locking.
//
// Supported source formats:
//
//   - csv / tsv: header "code,description[,category]" or positional columns
//   - codes: whitespace separated "CODE DESCRIPTION" lines (CMS icd10cm-codes file)
//   - order: CMS fixed-width order file with billable flag and long description
//
// Load is the only operation that can fail; it returns *errors.CatalogLoadError.
package catalog
