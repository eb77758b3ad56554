package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTokens(t *testing.T) {
	a := DefaultAnalyzer()

	tokens := a.ContentTokens("pain in right knee")
	assert.Equal(t, []string{"knee", "pain", "right"}, tokens)

	// Plural and singular forms share a stem
	assert.Equal(t, a.ContentTokens("knee pains"), a.ContentTokens("knee pain"))

	// Duplicates collapse
	assert.Equal(t, []string{"pain"}, a.ContentTokens("pain pain"))

	// Stop words only
	assert.Empty(t, a.ContentTokens("of the and"))
	assert.Nil(t, a.ContentTokens(""))
}

func TestContentTokensKeepsComplicationMarkers(t *testing.T) {
	a := DefaultAnalyzer()
	tokens := a.ContentTokens("diabetes without complications")
	assert.Contains(t, tokens, "without")
}

func TestStemKeyOrderInsensitive(t *testing.T) {
	a := DefaultAnalyzer()
	assert.Equal(t, a.StemKey("knee pain"), a.StemKey("pains knee"))
	assert.Equal(t, "", a.StemKey(""))
	assert.Equal(t, "fever", a.StemKey("fever"))
}

func TestAnalyzerWithoutStemmer(t *testing.T) {
	a := NewAnalyzer(nil)
	assert.Equal(t, []string{"knees", "pains"}, a.ContentTokens("pains in knees"))
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		a, b []string
		want int
	}{
		{[]string{"knee", "pain", "right"}, []string{"knee", "left", "pain"}, 2},
		{[]string{"a", "b"}, []string{"c", "d"}, 0},
		{nil, []string{"a"}, 0},
		{[]string{"a", "b", "c"}, []string{"a", "b", "c"}, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Overlap(tt.a, tt.b), "%v ∩ %v", tt.a, tt.b)
	}
}
