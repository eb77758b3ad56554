package textnorm

import "sort"

// Analyzer bundles normalization, stop-word removal and stemming. It holds
// no mutable state after construction and is safe for concurrent use.
type Analyzer struct {
	stemmer *Stemmer
}

// NewAnalyzer creates an analyzer. A nil stemmer disables stemming.
func NewAnalyzer(stemmer *Stemmer) *Analyzer {
	if stemmer == nil {
		stemmer = NewStemmer(false, "none", 0, nil)
	}
	return &Analyzer{stemmer: stemmer}
}

// DefaultAnalyzer uses DefaultStemmer
func DefaultAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultStemmer())
}

// Stemming reports whether content tokens are stemmed
func (a *Analyzer) Stemming() bool {
	return a.stemmer.IsEnabled()
}

// Normalize is a convenience wrapper around the package-level Normalize
func (a *Analyzer) Normalize(text string) string {
	return Normalize(text)
}

// ContentTokens returns the sorted, de-duplicated stems of the non-stop
// words of already-normalized text. The result is a token set suitable for
// Jaccard comparison with Overlap.
func (a *Analyzer) ContentTokens(normalized string) []string {
	words := Tokenize(normalized)
	if len(words) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if IsStopWord(w) {
			continue
		}
		stem := a.stemmer.Stem(w)
		if _, ok := seen[stem]; ok {
			continue
		}
		seen[stem] = struct{}{}
		out = append(out, stem)
	}
	sort.Strings(out)
	return out
}

// StemKey joins the content tokens of normalized text, giving an
// order-insensitive lookup key ("pains knee" and "knee pain" agree).
func (a *Analyzer) StemKey(normalized string) string {
	tokens := a.ContentTokens(normalized)
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0]
	}
	n := len(tokens) - 1
	for _, t := range tokens {
		n += len(t)
	}
	buf := make([]byte, 0, n)
	for i, t := range tokens {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, t...)
	}
	return string(buf)
}

// Overlap counts the tokens two sorted token sets share
func Overlap(a, b []string) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}
