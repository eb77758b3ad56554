package textnorm

// defaultStopWords never contribute to token overlap. "with" and "without"
// are intentionally absent: they carry complication detail in descriptions.
var defaultStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "by": true, "as": true, "is": true, "due": true,
}

// IsStopWord reports whether word is in the default stop list
func IsStopWord(word string) bool {
	return defaultStopWords[word]
}
