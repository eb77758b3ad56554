// Package textnorm turns free clinical text into the canonical form shared by
// the catalog, the synonym tables and incoming concept mentions.
//
// Normalization folds Unicode compatibility forms and diacritics, lowercases,
// replaces punctuation with spaces and collapses whitespace. Tokenization
// splits normalized text into words; content tokens additionally drop stop
// words and are reduced to Porter2 stems so "pains" and "pain" index together.
//
// The same Analyzer must be used at load time and at lookup time, otherwise
// exact-map and inverted-index keys will not line up.
package textnorm
