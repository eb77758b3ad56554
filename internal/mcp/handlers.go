package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/conceptmap/internal/catalog"
	cmerrors "github.com/standardbeagle/conceptmap/internal/errors"
	"github.com/standardbeagle/conceptmap/internal/types"
)

// MaxConceptsPerCall bounds a single map_concepts request
const MaxConceptsPerCall = 500

// MapConceptsParams are the map_concepts arguments
type MapConceptsParams struct {
	Concepts []types.ConceptMention `json:"concepts"`
	Terms    []string               `json:"terms"`
	TopK     int                    `json:"top_k"`
}

// mentions merges structured concepts with bare terms, concepts first
func (p MapConceptsParams) mentions() []types.ConceptMention {
	out := make([]types.ConceptMention, 0, len(p.Concepts)+len(p.Terms))
	out = append(out, p.Concepts...)
	for _, t := range p.Terms {
		out = append(out, types.ConceptMention{Text: t})
	}
	return out
}

// CodeResult is a mapping result annotated for human review
type CodeResult struct {
	types.MappingResult
	ValidationNotes []string `json:"validation_notes"`
	Recommendation  string   `json:"recommendation"`
}

// ConceptMapping holds the ranked codes for one input mention
type ConceptMapping struct {
	Concept  string       `json:"concept"`
	Category string       `json:"category,omitempty"`
	Negated  bool         `json:"negated,omitempty"`
	Codes    []CodeResult `json:"codes"`
}

// MapConceptsResponse is the map_concepts payload
type MapConceptsResponse struct {
	Mappings       []ConceptMapping `json:"mappings"`
	TotalConcepts  int              `json:"total_concepts"`
	MappedConcepts int              `json:"mapped_concepts"`
	ElapsedMs      float64          `json:"elapsed_ms"`
}

func (s *Server) handleMapConcepts(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p MapConceptsParams
	if err := decodeArgs(req, &p); err != nil {
		return createErrorResponse("map_concepts", err)
	}
	mentions := p.mentions()
	if len(mentions) == 0 {
		return createErrorResponse("map_concepts", fmt.Errorf("%w: provide 'concepts' or 'terms'", cmerrors.ErrMalformedInput))
	}
	if len(mentions) > MaxConceptsPerCall {
		return createErrorResponse("map_concepts",
			fmt.Errorf("%w: %d concepts exceeds limit of %d", cmerrors.ErrMalformedInput, len(mentions), MaxConceptsPerCall))
	}

	start := time.Now()
	each := s.mapper.MapEach(ctx, mentions, p.TopK)

	resp := MapConceptsResponse{
		Mappings:      make([]ConceptMapping, len(mentions)),
		TotalConcepts: len(mentions),
	}
	for i, m := range mentions {
		codes := make([]CodeResult, len(each[i]))
		for j, r := range each[i] {
			codes[j] = CodeResult{
				MappingResult:   r,
				ValidationNotes: r.ValidationNotes(),
				Recommendation:  r.Recommendation(),
			}
		}
		if len(codes) > 0 {
			resp.MappedConcepts++
		}
		resp.Mappings[i] = ConceptMapping{
			Concept:  m.Text,
			Category: m.Category,
			Negated:  m.Negated,
			Codes:    codes,
		}
	}
	resp.ElapsedMs = float64(time.Since(start).Microseconds()) / 1000

	s.logger.Debug().
		Int("concepts", resp.TotalConcepts).
		Int("mapped", resp.MappedConcepts).
		Float64("elapsed_ms", resp.ElapsedMs).
		Msg("map_concepts")
	return createJSONResponse(resp)
}

// LookupParams are the lookup_code arguments
type LookupParams struct {
	Code string `json:"code"`
}

// CodeInfo describes one catalog entry
type CodeInfo struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Billable    bool   `json:"billable"`
	Family      string `json:"family"`
}

func (s *Server) handleLookupCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p LookupParams
	if err := decodeArgs(req, &p); err != nil {
		return createErrorResponse("lookup_code", err)
	}
	if strings.TrimSpace(p.Code) == "" {
		return createErrorResponse("lookup_code", fmt.Errorf("%w: 'code' is required", cmerrors.ErrMalformedInput))
	}

	e, ok := s.mapper.Catalog().Lookup(p.Code)
	if !ok {
		return createErrorResponse("lookup_code", fmt.Errorf("code %s not found in catalog", catalog.NormalizeCode(p.Code)))
	}
	return createJSONResponse(CodeInfo{
		Code:        e.Code,
		Description: e.Description,
		Category:    e.Category,
		Billable:    e.Billable,
		Family:      e.Family(),
	})
}

// ValidateParams are the validate_code arguments
type ValidateParams struct {
	Code  string   `json:"code"`
	Codes []string `json:"codes"`
}

// ValidateResponse is the validate_code payload
type ValidateResponse struct {
	Results  []catalog.Validation `json:"results"`
	AllValid bool                 `json:"all_valid"`
}

func (s *Server) handleValidateCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p ValidateParams
	if err := decodeArgs(req, &p); err != nil {
		return createErrorResponse("validate_code", err)
	}
	codes := p.Codes
	if p.Code != "" {
		codes = append([]string{p.Code}, codes...)
	}
	if len(codes) == 0 {
		return createErrorResponse("validate_code", fmt.Errorf("%w: provide 'code' or 'codes'", cmerrors.ErrMalformedInput))
	}

	resp := ValidateResponse{Results: make([]catalog.Validation, len(codes)), AllValid: true}
	for i, c := range codes {
		v := s.mapper.Catalog().Validate(c)
		resp.Results[i] = v
		resp.AllValid = resp.AllValid && v.Valid
	}
	return createJSONResponse(resp)
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return createJSONResponse(s.mapper.Stats())
}

// decodeArgs unmarshals tool arguments, treating absent arguments as empty
func decodeArgs(req *mcp.CallToolRequest, v interface{}) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, v); err != nil {
		return fmt.Errorf("%w: invalid arguments: %v", cmerrors.ErrMalformedInput, err)
	}
	return nil
}
