package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, strips diacritics and punctuation, and collapses
// runs of whitespace into single spaces. Apostrophes are dropped rather than
// split on so "Crohn's" becomes "crohns".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	folded, _, err := transform.String(foldChain(), text)
	if err != nil {
		folded = norm.NFKC.String(text)
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// foldChain decomposes, removes combining marks, and recomposes.
// transform.Chain keeps state, so a fresh chain is built per call.
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Tokenize splits normalized text into words
func Tokenize(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
