package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the concept mapping system
type ErrorType string

const (
	// Load-time errors
	ErrorTypeCatalogLoad ErrorType = "catalog_load"
	ErrorTypeSynonymLoad ErrorType = "synonym_load"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Sentinel causes wrapped by the load errors
var (
	ErrEmptyCatalog   = errors.New("catalog contains no entries")
	ErrDuplicateCode  = errors.New("duplicate catalog code")
	ErrUnknownFormat  = errors.New("unknown source format")
	ErrNoSources      = errors.New("no sources matched")
	ErrMalformedInput = errors.New("malformed input")
)

// CatalogLoadError is fatal: without a catalog no mapping can be served.
type CatalogLoadError struct {
	Type       ErrorType
	Path       string
	Line       int
	Underlying error
	Timestamp  time.Time
}

// NewCatalogLoadError creates a catalog load error for the given source
func NewCatalogLoadError(path string, err error) *CatalogLoadError {
	return &CatalogLoadError{
		Type:       ErrorTypeCatalogLoad,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithLine records the source line that failed
func (e *CatalogLoadError) WithLine(line int) *CatalogLoadError {
	e.Line = line
	return e
}

// Error implements the error interface
func (e *CatalogLoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("catalog load failed for %s:%d: %v", e.Path, e.Line, e.Underlying)
	}
	return fmt.Sprintf("catalog load failed for %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *CatalogLoadError) Unwrap() error {
	return e.Underlying
}

// SynonymLoadError is non-fatal: the engine keeps running with synonym
// matching disabled.
type SynonymLoadError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewSynonymLoadError creates a synonym load error for the given source
func NewSynonymLoadError(path string, err error) *SynonymLoadError {
	return &SynonymLoadError{
		Type:       ErrorTypeSynonymLoad,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *SynonymLoadError) Error() string {
	return fmt.Sprintf("synonym load failed for %s: %v", e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *SynonymLoadError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the caller may continue without the source
func (e *SynonymLoadError) IsRecoverable() bool {
	return true
}

// ConfigError represents a configuration error
type ConfigError struct {
	Section    string
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(section, field, value string, err error) *ConfigError {
	return &ConfigError{
		Section:    section,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error in %s: %v", e.Section, e.Underlying)
	}
	return fmt.Sprintf("config error for %s.%s (value %s): %v", e.Section, e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, or nil when every input is nil
func NewMultiError(errs []error) error {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// IsFatal reports whether err must stop startup. Only catalog failures are
// fatal; synonym and other recoverable errors are not.
func IsFatal(err error) bool {
	var catalogErr *CatalogLoadError
	return errors.As(err, &catalogErr)
}
