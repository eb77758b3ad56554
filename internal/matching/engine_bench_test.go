package matching

import (
	"context"
	"testing"
)

func BenchmarkMatch(b *testing.B) {
	e := newTestEngine(b)
	ctx := context.Background()
	concepts := map[string]string{
		"exact":   "nausea",
		"synonym": "sugar sickness",
		"fuzzy":   "knee pain right side",
		"miss":    "xyzzy plugh",
	}
	for name, text := range concepts {
		normalized := e.catalog.Analyzer().Normalize(text)
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				e.MatchNormalized(ctx, normalized)
			}
		})
	}
}
