package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
)

// Format names a catalog source layout
type Format string

const (
	FormatAuto  Format = "auto"
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatCodes Format = "codes" // "A000    Cholera due to ..." per line
	FormatOrder Format = "order" // CMS fixed-width order file
)

// ParseFormat converts a config string into a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatCSV, FormatTSV, FormatCodes, FormatOrder:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", cmerrors.ErrUnknownFormat, s)
	}
}

// DetectFormat picks a format from the file extension
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".tsv", ".tab":
		return FormatTSV
	case ".order":
		return FormatOrder
	default:
		if strings.Contains(strings.ToLower(filepath.Base(path)), "order") {
			return FormatOrder
		}
		return FormatCodes
	}
}

// Load reads and indexes a catalog file. Any failure is a *errors.CatalogLoadError.
func Load(path string, opts ...Option) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cmerrors.NewCatalogLoadError(path, err)
	}
	defer f.Close()

	o := buildOptions(opts)
	if o.format == FormatAuto {
		o.format = DetectFormat(path)
	}
	return load(path, f, o)
}

// LoadReader indexes a catalog from r. format must not be FormatAuto.
func LoadReader(source string, r io.Reader, format Format, opts ...Option) (*Index, error) {
	o := buildOptions(opts)
	o.format = format
	return load(source, r, o)
}

func load(source string, r io.Reader, o options) (*Index, error) {
	var (
		rows []Row
		err  error
	)

	switch o.format {
	case FormatCSV:
		rows, err = readDelimited(r, ',')
	case FormatTSV:
		rows, err = readDelimited(r, '\t')
	case FormatCodes:
		rows, err = readCodes(r)
	case FormatOrder:
		rows, err = readOrder(r)
	default:
		err = fmt.Errorf("%w: %q", cmerrors.ErrUnknownFormat, o.format)
	}
	if err != nil {
		var loadErr *cmerrors.CatalogLoadError
		if errors.As(err, &loadErr) {
			loadErr.Path = source
			return nil, loadErr
		}
		return nil, cmerrors.NewCatalogLoadError(source, err)
	}

	return build(source, rows, o)
}

// readDelimited parses CSV/TSV. A first row naming "code" and "description"
// columns is treated as a header; otherwise columns are positional
// (code, description, category).
func readDelimited(r io.Reader, comma rune) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	codeCol, descCol, catCol := 0, 1, 2
	var rows []Row
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, cmerrors.NewCatalogLoadError("", err).WithLine(line)
		}

		if line == 1 {
			if c, d, cat, ok := headerColumns(rec); ok {
				codeCol, descCol, catCol = c, d, cat
				continue
			}
		}

		row := Row{Line: line}
		if codeCol < len(rec) {
			row.Code = rec[codeCol]
		}
		if descCol < len(rec) {
			row.Description = strings.TrimSpace(rec[descCol])
		}
		if catCol >= 0 && catCol < len(rec) {
			row.Category = strings.TrimSpace(rec[catCol])
		}
		if strings.TrimSpace(row.Code) == "" && row.Description == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func headerColumns(rec []string) (code, desc, category int, ok bool) {
	code, desc, category = -1, -1, -1
	for i, name := range rec {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "code", "icd10_code", "icd10cm_code":
			code = i
		case "description", "desc", "long_description", "display":
			desc = i
		case "category", "chapter":
			category = i
		}
	}
	return code, desc, category, code >= 0 && desc >= 0
}

// readCodes parses "CODE<whitespace>DESCRIPTION" lines
func readCodes(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		code, desc := splitFirstField(text)
		rows = append(rows, Row{Code: code, Description: desc, Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, cmerrors.NewCatalogLoadError("", err).WithLine(line)
	}
	return rows, nil
}

func splitFirstField(text string) (string, string) {
	i := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == '\t' })
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

// Column layout of the CMS order file
const (
	orderCodeStart  = 6
	orderCodeEnd    = 13
	orderFlagPos    = 14
	orderShortStart = 16
	orderShortEnd   = 76
	orderLongStart  = 77
)

// readOrder parses the CMS fixed-width order file. The long description is
// preferred; header (non-billable) rows are kept with Billable=false.
func readOrder(r io.Reader) ([]Row, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if len(text) <= orderShortStart {
			return nil, cmerrors.NewCatalogLoadError("", fmt.Errorf("%w: order row too short", cmerrors.ErrMalformedInput)).WithLine(line)
		}

		billable := text[orderFlagPos] == '1'
		row := Row{
			Code:     strings.TrimSpace(text[orderCodeStart:min(orderCodeEnd, len(text))]),
			Billable: &billable,
			Line:     line,
		}
		if len(text) > orderLongStart {
			row.Description = strings.TrimSpace(text[orderLongStart:])
		}
		if row.Description == "" {
			row.Description = strings.TrimSpace(text[orderShortStart:min(orderShortEnd, len(text))])
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, cmerrors.NewCatalogLoadError("", err).WithLine(line)
	}
	return rows, nil
}
