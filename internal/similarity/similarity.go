package similarity

import (
	"fmt"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/conceptmap/internal/textnorm"
)

// Algorithm names accepted for the edit-distance component
const (
	AlgorithmLevenshtein = "levenshtein"
	AlgorithmJaroWinkler = "jaro-winkler"
)

// Default fuzzy weighting: token overlap dominates, edit distance refines
const (
	DefaultJaccardWeight = 0.6
	DefaultEditWeight    = 0.4
)

// Scorer combines token-set Jaccard overlap with a length-normalized edit
// similarity between full normalized strings.
type Scorer struct {
	jaccardWeight float64
	editWeight    float64
	algorithm     string
}

// NewScorer creates a scorer. Weights are normalized so they sum to 1.
func NewScorer(jaccardWeight, editWeight float64, algorithm string) *Scorer {
	if jaccardWeight < 0 || editWeight < 0 || jaccardWeight+editWeight == 0 {
		jaccardWeight, editWeight = DefaultJaccardWeight, DefaultEditWeight
	}
	sum := jaccardWeight + editWeight

	if algorithm == "" {
		algorithm = AlgorithmLevenshtein
	}

	return &Scorer{
		jaccardWeight: jaccardWeight / sum,
		editWeight:    editWeight / sum,
		algorithm:     algorithm,
	}
}

// DefaultScorer uses 0.6/0.4 weighting with Levenshtein
func DefaultScorer() *Scorer {
	return NewScorer(DefaultJaccardWeight, DefaultEditWeight, AlgorithmLevenshtein)
}

// Weights returns the normalized (jaccard, edit) weights
func (s *Scorer) Weights() (float64, float64) {
	return s.jaccardWeight, s.editWeight
}

// Algorithm returns the configured edit similarity algorithm
func (s *Scorer) Algorithm() string {
	return s.algorithm
}

// Combine weights a Jaccard value with an edit ratio into a score in [0,1]
func (s *Scorer) Combine(jaccard, edit float64) float64 {
	return clamp(s.jaccardWeight*jaccard + s.editWeight*edit)
}

// EditRatio returns 1 - distance/maxLen for Levenshtein, or the Jaro-Winkler
// similarity, between two strings.
func (s *Scorer) EditRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	algo := edlib.Levenshtein
	if s.algorithm == AlgorithmJaroWinkler {
		algo = edlib.JaroWinkler
	}

	// go-edlib returns a normalized similarity for both algorithms
	score, err := edlib.StringsSimilarity(a, b, algo)
	if err != nil {
		return 0.0
	}
	return clamp(float64(score))
}

// Jaccard computes |a ∩ b| / |a ∪ b| for sorted, de-duplicated token sets
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	shared := textnorm.Overlap(a, b)
	return JaccardFromCounts(shared, len(a), len(b))
}

// JaccardFromCounts computes Jaccard from an intersection size and set sizes
func JaccardFromCounts(shared, sizeA, sizeB int) float64 {
	union := sizeA + sizeB - shared
	if union <= 0 {
		return 0.0
	}
	return float64(shared) / float64(union)
}

// ValidateConfig validates scorer configuration
func (s *Scorer) ValidateConfig() error {
	switch s.algorithm {
	case AlgorithmLevenshtein, AlgorithmJaroWinkler:
		return nil
	default:
		return fmt.Errorf("invalid algorithm: %s (must be levenshtein or jaro-winkler)", s.algorithm)
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
