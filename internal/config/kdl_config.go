package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseKDL reads the KDL layout over the defaults:
//
//	catalog { path "data/icd10cm.csv"; format "csv"; }
//	synonyms { path "data/synonyms/**/*.kdl"; }
//	matching { fuzzy_threshold 0.35; }
//
// Inline blocks must terminate their last child with ";". Multi-line blocks
// need no terminators.
func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "catalog":
			for _, cn := range n.Children {
				assignSimpleString(cn, "path", func(v string) { cfg.Catalog.Path = v })
				assignSimpleString(cn, "format", func(v string) { cfg.Catalog.Format = v })
			}
		case "synonyms":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "path", "paths":
					cfg.Synonyms.Paths = append(cfg.Synonyms.Paths, collectStringArgs(cn)...)
				}
			}
		case "matching":
			parseMatching(&cfg.Matching, n)
		case "ranking":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "top_k":
					if v, ok := firstIntArg(cn); ok {
						cfg.Ranking.TopK = v
					}
				case "corroboration_boost":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Ranking.CorroborationBoost = v
					}
				case "max_cached":
					if v, ok := firstIntArg(cn); ok {
						cfg.Ranking.MaxCached = v
					}
				case "markers":
					cfg.Ranking.Markers = collectStringArgs(cn)
				}
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "capacity":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.Capacity = v
					}
				case "shards":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.Shards = v
					}
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.Workers = v
					}
				case "deadline_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.DeadlineMs = v
					}
				}
			}
		case "log":
			for _, cn := range n.Children {
				assignSimpleString(cn, "level", func(v string) { cfg.Log.Level = v })
				assignSimpleString(cn, "format", func(v string) { cfg.Log.Format = v })
			}
		case "filter":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "exclude_categories":
					cfg.Filter.ExcludeCategories = collectStringArgs(cn)
				case "exclude_terms":
					cfg.Filter.ExcludeTerms = collectStringArgs(cn)
				}
			}
		}
	}

	return cfg, nil
}

func parseMatching(m *Matching, n *document.Node) {
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "jaccard_weight":
			if v, ok := firstFloatArg(cn); ok {
				m.JaccardWeight = v
			}
		case "edit_weight":
			if v, ok := firstFloatArg(cn); ok {
				m.EditWeight = v
			}
		case "fuzzy_threshold":
			if v, ok := firstFloatArg(cn); ok {
				m.FuzzyThreshold = v
			}
		case "max_postings":
			if v, ok := firstIntArg(cn); ok {
				m.MaxPostings = v
			}
		case "max_fuzzy_candidates":
			if v, ok := firstIntArg(cn); ok {
				m.MaxFuzzyCandidates = v
			}
		case "similarity":
			if s, ok := firstStringArg(cn); ok {
				m.Similarity = s
			}
		case "stemming":
			if b, ok := firstBoolArg(cn); ok {
				m.Stemming = b
			}
		case "stem_min_length":
			if v, ok := firstIntArg(cn); ok {
				m.StemMinLength = v
			}
		case "fuzzy":
			if b, ok := firstBoolArg(cn); ok {
				m.Fuzzy = b
			}
		}
	}
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// collectStringArgs reads inline arguments, or child node names for the
// block form: exclude_terms { "aspirin"; "tylenol"; }
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
