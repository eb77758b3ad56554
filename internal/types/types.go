package types

import (
	"fmt"
	"strings"
)

// Default limits shared by the matching and ranking layers
const (
	DefaultTopK = 6 // results returned per concept when the caller passes topK <= 0

	DefaultMaxCached = 25 // ranked depth kept per cache entry; caller topK is capped here
)

// Strategy identifies the matching technique that produced a candidate.
// Strategies run in a fixed priority order: Exact, Synonym, Fuzzy.
type Strategy uint8

const (
	StrategyExact Strategy = iota
	StrategySynonym
	StrategyFuzzy
)

// Strategies lists every strategy in priority order
var Strategies = []Strategy{StrategyExact, StrategySynonym, StrategyFuzzy}

func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategySynonym:
		return "synonym"
	case StrategyFuzzy:
		return "fuzzy"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// MarshalText renders the strategy by name in JSON output
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a strategy name
func (s *Strategy) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "exact":
		*s = StrategyExact
	case "synonym":
		*s = StrategySynonym
	case "fuzzy":
		*s = StrategyFuzzy
	default:
		return fmt.Errorf("unknown strategy %q", string(b))
	}
	return nil
}

// ConceptMention is a normalized clinical term extracted upstream.
// Category is an optional hint such as "symptom", "condition" or "medication".
type ConceptMention struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Negated  bool   `json:"negated,omitempty"`
}

// MatchCandidate is a raw hit emitted by one strategy for one catalog code.
type MatchCandidate struct {
	Code        string
	Strategy    Strategy
	RawScore    float64 // 0.0-1.0
	MatchedText string  // the catalog description or synonym term that matched
}

func (c MatchCandidate) String() string {
	return fmt.Sprintf("Candidate{%s %s %.3f %q}", c.Code, c.Strategy, c.RawScore, c.MatchedText)
}

// MappingResult is a ranked, confidence-scored catalog code for a concept.
// Callers own returned results; nothing inside the engine retains them.
type MappingResult struct {
	Code        string     `json:"code"`
	Description string     `json:"description"`
	Confidence  float64    `json:"confidence"`
	Category    string     `json:"category"`
	Strategies  []Strategy `json:"strategies,omitempty"`
}

// Clone returns a deep copy so cached values are never aliased by callers
func (r MappingResult) Clone() MappingResult {
	out := r
	if r.Strategies != nil {
		out.Strategies = append([]Strategy(nil), r.Strategies...)
	}
	return out
}

// HasStrategy reports whether the given strategy contributed to this result
func (r MappingResult) HasStrategy(s Strategy) bool {
	for _, got := range r.Strategies {
		if got == s {
			return true
		}
	}
	return false
}

// ValidationNotes returns review hints for a coder based on confidence and
// the strategies that produced the code.
func (r MappingResult) ValidationNotes() []string {
	var notes []string
	switch {
	case r.Confidence >= 0.9:
		notes = append(notes, "High confidence match - likely accurate")
	case r.Confidence >= 0.7:
		notes = append(notes, "Good match - review for accuracy")
	default:
		notes = append(notes, "Lower confidence - requires clinical validation")
	}

	if len(r.Strategies) == 1 {
		switch r.Strategies[0] {
		case StrategyFuzzy:
			notes = append(notes, "Matched based on text similarity")
		case StrategySynonym:
			notes = append(notes, "Matched through synonym mapping")
		}
	} else if len(r.Strategies) > 1 {
		notes = append(notes, fmt.Sprintf("Corroborated by %d strategies", len(r.Strategies)))
	}
	return notes
}

// Recommendation summarizes whether the code should be used as-is
func (r MappingResult) Recommendation() string {
	switch {
	case r.Confidence >= 0.9:
		return "Recommended for use - high confidence match"
	case r.Confidence >= 0.8:
		return "Consider for use - good match with clinical review"
	case r.Confidence >= 0.7:
		return "Use with caution - requires clinical validation"
	default:
		return "Not recommended - low confidence match"
	}
}

func (r MappingResult) String() string {
	return fmt.Sprintf("%s %.3f %s", r.Code, r.Confidence, r.Description)
}

// CloneResults deep-copies a result slice. A nil input yields an empty slice
// so unmapped concepts are never reported as nil.
func CloneResults(in []MappingResult) []MappingResult {
	out := make([]MappingResult, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
