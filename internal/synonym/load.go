package synonym

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
)

// Format names a synonym source layout
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatKDL  Format = "kdl"
)

// listSeparator splits list columns in CSV/TSV sources
const listSeparator = "|"

// DetectFormat picks a format from the file extension
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".kdl":
		return FormatKDL, nil
	default:
		return "", fmt.Errorf("%w: synonym source %q", cmerrors.ErrUnknownFormat, ext)
	}
}

// Load expands the glob patterns, parses every matching file and resolves the
// result against the catalog. Any failure is, or wraps, a
// *errors.SynonymLoadError; the caller is expected to continue without
// synonyms.
func Load(cat *catalog.Index, patterns []string, opts ...Option) (*Index, error) {
	paths, err := ExpandSources(patterns)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		doc, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return Build(cat, docs, opts...), nil
}

// ExpandSources resolves doublestar patterns ("data/**/*.kdl") to a sorted,
// de-duplicated list of files. A pattern without glob meta characters must
// name an existing file. Every failing pattern is reported, joined in an
// *errors.MultiError.
func ExpandSources(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	var errs []error
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			errs = append(errs, cmerrors.NewSynonymLoadError(pattern, err))
			continue
		}
		if len(matches) == 0 {
			errs = append(errs, cmerrors.NewSynonymLoadError(pattern, fmt.Errorf("%w: no files match", cmerrors.ErrNoSources)))
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	if err := cmerrors.NewMultiError(errs); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, cmerrors.NewSynonymLoadError("", cmerrors.ErrNoSources)
	}
	return out, nil
}

// ReadFile parses one synonym file, picking the format from its extension
func ReadFile(path string) (*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, cmerrors.NewSynonymLoadError(path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, cmerrors.NewSynonymLoadError(path, err)
	}
	defer f.Close()
	return Parse(path, f, format)
}

// Parse reads a synonym document from r
func Parse(source string, r io.Reader, format Format) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch format {
	case FormatJSON:
		doc, err = parseJSON(r)
	case FormatCSV:
		doc, err = parseDelimited(r, ',')
	case FormatTSV:
		doc, err = parseDelimited(r, '\t')
	case FormatKDL:
		doc, err = parseKDL(r)
	default:
		err = fmt.Errorf("%w: %q", cmerrors.ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, cmerrors.NewSynonymLoadError(source, err)
	}
	doc.Source = source
	return doc, nil
}

// conditionFile is the object layout: condition -> codes, condition -> terms
type conditionFile struct {
	SpecificConditionMappings map[string][]string `json:"specific_condition_mappings"`
	SynonymMappings           map[string][]string `json:"synonym_mappings"`
	MedicationExclusions      []string            `json:"medication_exclusions"`
}

func parseJSON(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty JSON document", cmerrors.ErrMalformedInput)
	}

	if data[0] == '[' {
		var groups []RawGroup
		if err := json.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("%w: %v", cmerrors.ErrMalformedInput, err)
		}
		return &Document{Groups: groups}, nil
	}

	var cf conditionFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %v", cmerrors.ErrMalformedInput, err)
	}

	keys := make([]string, 0, len(cf.SpecificConditionMappings)+len(cf.SynonymMappings))
	for k := range cf.SpecificConditionMappings {
		keys = append(keys, k)
	}
	for k := range cf.SynonymMappings {
		if _, ok := cf.SpecificConditionMappings[k]; !ok {
			keys = append(keys, k)
		}
	}
	// JSON objects are unordered; sort so term conflicts resolve the same way every run
	sort.Strings(keys)

	doc := &Document{Exclusions: cf.MedicationExclusions}
	for _, k := range keys {
		doc.Groups = append(doc.Groups, RawGroup{
			CanonicalKey: k,
			Terms:        cf.SynonymMappings[k],
			LinkedCodes:  cf.SpecificConditionMappings[k],
		})
	}
	return doc, nil
}

// parseDelimited reads canonical_condition, synonym_terms, linked_codes
// columns. List columns are "|" separated. Lines starting with # are comments.
func parseDelimited(r io.Reader, comma rune) (*Document, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	keyCol, termsCol, codesCol := 0, 1, 2
	doc := &Document{}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", cmerrors.ErrMalformedInput, line, err)
		}
		if line == 1 && isHeader(rec) {
			for i, name := range rec {
				switch strings.ToLower(strings.TrimSpace(name)) {
				case "canonical_condition", "condition", "canonical_key":
					keyCol = i
				case "synonym_terms", "terms", "synonyms":
					termsCol = i
				case "linked_codes", "codes":
					codesCol = i
				}
			}
			continue
		}
		doc.Groups = append(doc.Groups, RawGroup{
			CanonicalKey: column(rec, keyCol),
			Terms:        splitList(column(rec, termsCol)),
			LinkedCodes:  splitList(column(rec, codesCol)),
		})
	}
	return doc, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(rec[0])) {
	case "canonical_condition", "condition", "canonical_key":
		return true
	}
	return false
}

func column(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, listSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
