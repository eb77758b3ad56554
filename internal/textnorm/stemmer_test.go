package textnorm

import (
	"testing"
)

func TestNewStemmer(t *testing.T) {
	stemmer := NewStemmer(true, "porter2", 3, map[string]bool{"COPD": true})

	if !stemmer.IsEnabled() {
		t.Error("Stemmer should be enabled")
	}

	if stemmer.Stem("copd") != "copd" {
		t.Error("exclusions should be matched case-insensitively")
	}
}

func TestStemDisabled(t *testing.T) {
	stemmer := NewStemmer(false, "porter2", 3, nil)

	if stemmer.Stem("fractures") != "fractures" {
		t.Error("Stemming should return original when disabled")
	}
}

func TestStemMinLength(t *testing.T) {
	stemmer := NewStemmer(true, "porter2", 5, nil)

	// Words shorter than minLength should not be stemmed
	if stemmer.Stem("legs") != "legs" {
		t.Error("Word shorter than minLength should not be stemmed")
	}

	if stemmer.Stem("fractures") == "fractures" {
		t.Error("Word meeting minLength should be stemmed")
	}
}

func TestStemSharedRoots(t *testing.T) {
	stemmer := DefaultStemmer()

	groups := [][]string{
		{"fracture", "fractures", "fractured"},
		{"infection", "infections"},
		{"pain", "pains"},
	}

	for _, group := range groups {
		root := stemmer.Stem(group[0])
		for _, w := range group[1:] {
			if got := stemmer.Stem(w); got != root {
				t.Errorf("Stem(%q) = %q, want %q (same as %q)", w, got, root, group[0])
			}
		}
	}
}

func TestStemmerValidateConfig(t *testing.T) {
	if err := NewStemmer(true, "porter2", 3, nil).ValidateConfig(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := NewStemmer(true, "snowball", 3, nil).ValidateConfig(); err == nil {
		t.Error("expected error for unknown algorithm")
	}
	if err := NewClinicalStemmer(true, -1).ValidateConfig(); err == nil {
		t.Error("expected error for negative min length")
	}
}

func TestAnalyzerStemming(t *testing.T) {
	if !DefaultAnalyzer().Stemming() {
		t.Error("default analyzer should stem")
	}
	if NewAnalyzer(nil).Stemming() {
		t.Error("nil stemmer disables stemming")
	}
	if NewAnalyzer(NewClinicalStemmer(false, 4)).Stemming() {
		t.Error("disabled stemmer reported as stemming")
	}
}

func TestClinicalStemmerKeepsAbbreviations(t *testing.T) {
	stemmer := NewClinicalStemmer(true, 3)

	for _, word := range []string{"aids", "copd", "htn"} {
		if got := stemmer.Stem(word); got != word {
			t.Errorf("Stem(%q) = %q, abbreviations must not be stemmed", word, got)
		}
	}
	if stemmer.Stem("fractures") == "fractures" {
		t.Error("ordinary words should still be stemmed")
	}
}
