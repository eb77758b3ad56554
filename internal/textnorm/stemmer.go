package textnorm

import (
	"fmt"
	"strings"

	"github.com/surgebase/porter2"
)

// Stemmer provides word normalization through stemming algorithms
// Lets "fractures", "fractured" and "fracture" share one index key
type Stemmer struct {
	enabled    bool
	algorithm  string
	minLength  int
	exclusions map[string]bool // Words to never stem
}

// NewStemmer creates a new stemmer with configuration
func NewStemmer(enabled bool, algorithm string, minLength int, exclusions map[string]bool) *Stemmer {
	if algorithm == "" {
		algorithm = "porter2"
	}

	ex := make(map[string]bool, len(exclusions))
	for k, v := range exclusions {
		ex[strings.ToLower(k)] = v
	}

	return &Stemmer{
		enabled:    enabled,
		algorithm:  algorithm,
		minLength:  minLength,
		exclusions: ex,
	}
}

// clinicalAbbreviations are never stemmed ("aids" is not "aid")
var clinicalAbbreviations = map[string]bool{
	"copd": true, "gerd": true, "uti": true, "htn": true,
	"hiv": true, "aids": true, "covid": true, "adhd": true,
}

// DefaultStemmer stems with Porter2 and leaves short clinical abbreviations alone
func DefaultStemmer() *Stemmer {
	return NewClinicalStemmer(true, 4)
}

// NewClinicalStemmer creates a Porter2 stemmer with the clinical
// abbreviation exclusions
func NewClinicalStemmer(enabled bool, minLength int) *Stemmer {
	return NewStemmer(enabled, "porter2", minLength, clinicalAbbreviations)
}

// IsEnabled checks if stemming is enabled
func (s *Stemmer) IsEnabled() bool {
	return s.enabled
}

// Stem returns the stem of a word, or the original word if stemming is disabled/excluded
func (s *Stemmer) Stem(word string) string {
	if !s.enabled {
		return word
	}

	if s.exclusions[word] {
		return word
	}

	if len(word) < s.minLength {
		return word
	}

	switch s.algorithm {
	case "none":
		return word
	default:
		return porter2.Stem(word)
	}
}

// ValidateConfig validates the stemmer configuration
func (s *Stemmer) ValidateConfig() error {
	if s.minLength < 0 {
		return fmt.Errorf("invalid min length: %d (must be >= 0)", s.minLength)
	}

	switch s.algorithm {
	case "porter2", "none":
		return nil
	default:
		return fmt.Errorf("invalid algorithm: %s (must be porter2 or none)", s.algorithm)
	}
}
