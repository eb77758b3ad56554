package matching

import (
	"context"
	"sort"

	"github.com/standardbeagle/conceptmap/internal/similarity"
	"github.com/standardbeagle/conceptmap/internal/types"
)

// How often the fuzzy pass polls ctx, in postings visited and edit
// distances computed respectively.
const (
	postingsCheckInterval = 256
	editCheckInterval     = 32
)

type fuzzyCandidate struct {
	id      int32
	jaccard float64
}

// matchFuzzy seeds candidates from the inverted index, ranks them by token
// overlap, then runs the edit-distance comparison on the best few.
func (e *Engine) matchFuzzy(ctx context.Context, normalized string, out []types.MatchCandidate) ([]types.MatchCandidate, bool) {
	if ctx.Err() != nil {
		return out, false
	}

	queryTokens := e.catalog.Analyzer().ContentTokens(normalized)
	if len(queryTokens) == 0 {
		return out, true
	}

	seeds, ok := e.seedCandidates(ctx, queryTokens)
	if !ok {
		return out, false
	}
	if len(seeds) == 0 {
		return out, true
	}

	jaccardWeight, editWeight := e.scorer.Weights()
	pool := make([]fuzzyCandidate, 0, len(seeds))
	for id := range seeds {
		jac := similarity.Jaccard(queryTokens, e.catalog.At(id).Tokens)
		// Even a perfect edit ratio cannot lift this entry over the threshold
		if jaccardWeight*jac+editWeight < e.cfg.FuzzyThreshold {
			continue
		}
		pool = append(pool, fuzzyCandidate{id: id, jaccard: jac})
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].jaccard != pool[j].jaccard {
			return pool[i].jaccard > pool[j].jaccard
		}
		return pool[i].id < pool[j].id
	})
	if len(pool) > e.cfg.MaxFuzzyCandidates {
		pool = pool[:e.cfg.MaxFuzzyCandidates]
	}

	for i, c := range pool {
		if i%editCheckInterval == editCheckInterval-1 && ctx.Err() != nil {
			return out, false
		}
		entry := e.catalog.At(c.id)
		score := e.scorer.Combine(c.jaccard, e.scorer.EditRatio(normalized, entry.Normalized))
		if score < e.cfg.FuzzyThreshold {
			continue
		}
		out = append(out, types.MatchCandidate{
			Code:        entry.Code,
			Strategy:    types.StrategyFuzzy,
			RawScore:    score,
			MatchedText: entry.Description,
		})
	}
	return out, true
}

// seedCandidates collects the ids of entries sharing at least one query
// token. Tokens with more than MaxPostings entries do not seed; when every
// token is that frequent the shortest of their lists is used alone.
func (e *Engine) seedCandidates(ctx context.Context, queryTokens []string) (map[int32]struct{}, bool) {
	seeds := make(map[int32]struct{})
	var fallback []int32
	visited := 0
	used := 0

	for _, tok := range queryTokens {
		posts := e.catalog.Postings(tok)
		if len(posts) == 0 {
			continue
		}
		if len(posts) > e.cfg.MaxPostings {
			if fallback == nil || len(posts) < len(fallback) {
				fallback = posts
			}
			continue
		}
		used++
		for _, id := range posts {
			visited++
			if visited%postingsCheckInterval == 0 && ctx.Err() != nil {
				return nil, false
			}
			seeds[id] = struct{}{}
		}
	}

	if used == 0 && fallback != nil {
		for _, id := range fallback {
			visited++
			if visited%postingsCheckInterval == 0 && ctx.Err() != nil {
				return nil, false
			}
			seeds[id] = struct{}{}
		}
	}
	return seeds, true
}
