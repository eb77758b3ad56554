// Package mcp exposes the concept mapper as Model Context Protocol tools so
// agent pipelines can map concepts and check codes over stdio.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/standardbeagle/conceptmap/internal/logging"
	"github.com/standardbeagle/conceptmap/internal/mapper"
	"github.com/standardbeagle/conceptmap/internal/version"
)

// ServerName is reported to clients during initialization
const ServerName = "conceptmap-mcp-server"

// Server wraps an MCP server around a loaded mapper
type Server struct {
	server *mcp.Server
	mapper *mapper.Mapper
	logger zerolog.Logger
}

// NewServer registers the mapping tools. The mapper must already be loaded.
func NewServer(m *mapper.Mapper, logger zerolog.Logger) *Server {
	s := &Server{
		mapper: m,
		logger: logging.Component(logger, "mcp"),
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Implementation(),
	}, nil)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "map_concepts",
		Description: "Map clinical concept mentions (symptoms, conditions) to ranked ICD-10-CM codes with confidence scores. Negated mentions and medications are skipped.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"concepts": {
					Type:        "array",
					Description: "Concept mentions to map",
					Items: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"text":     {Type: "string", Description: "Concept text, e.g. 'knee pain right side'"},
							"category": {Type: "string", Description: "Optional hint: symptom, condition, medication, laterality"},
							"negated":  {Type: "boolean", Description: "True when the mention is negated in the source note"},
						},
						Required: []string{"text"},
					},
				},
				"terms": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Shorthand for concepts without hints",
				},
				"top_k": {
					Type:        "integer",
					Description: "Maximum codes per concept (default 6)",
				},
			},
		},
	}, s.handleMapConcepts)

	s.server.AddTool(&mcp.Tool{
		Name:        "lookup_code",
		Description: "Look up an ICD-10-CM code in the loaded catalog. Dots are optional ('R519' and 'R51.9' are equivalent).",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {Type: "string", Description: "ICD-10-CM code"},
			},
			Required: []string{"code"},
		},
	}, s.handleLookupCode)

	s.server.AddTool(&mcp.Tool{
		Name:        "validate_code",
		Description: "Check code format, catalog membership and billability for one or more ICD-10-CM codes.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {Type: "string", Description: "Single code to validate"},
				"codes": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Codes to validate",
				},
			},
		},
	}, s.handleValidateCode)

	s.server.AddTool(&mcp.Tool{
		Name:        "catalog_stats",
		Description: "Report catalog, synonym and cache sizes for the running server.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleStats)
}

// Start serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().
		Int("catalog_entries", s.mapper.Catalog().Len()).
		Str("build", version.BuildID()).
		Msg("starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
