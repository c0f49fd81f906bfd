package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dejo1307/xcodemcp/internal/config"
	"github.com/dejo1307/xcodemcp/internal/engine"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Server wraps the MCP server and connects it to the snapshot engine.
type Server struct {
	mcp *mcp.Server
	eng *engine.Engine
	cfg *config.Config
}

// New creates a new MCP server wired to the given engine.
func New(eng *engine.Engine, cfg *config.Config) (*Server, error) {
	if eng == nil || cfg == nil {
		return nil, fmt.Errorf("server needs an engine and a config")
	}
	s := &Server{
		eng: eng,
		cfg: cfg,
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "xcodemcp",
		Version: Version,
	}, nil)

	s.mcp = mcpServer
	s.registerResources()
	s.registerTools()

	return s, nil
}

// Run starts the MCP server on the stdio transport. With watching enabled,
// project edits regenerate the snapshot while the server runs.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Watch.Enabled {
		stop, err := s.startWatcher(ctx)
		if err != nil {
			log.Printf("[server] watching disabled: %v", err)
		} else {
			defer stop()
		}
	}

	log.Println("[server] starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// snapshotResource describes one artifact exposed as an MCP resource.
type snapshotResource struct {
	uri         string
	name        string
	description string
	mimeType    string
	artifact    string
}

var snapshotResources = []snapshotResource{
	{"xcode://snapshot/context", "Project Context", "Compact LLM-ready summary of the Xcode projects", "text/markdown", "llm_context.md"},
	{"xcode://snapshot/facts", "Project Facts", "All extracted project facts in JSONL format", "application/jsonl", "facts.jsonl"},
	{"xcode://snapshot/insights", "Project Insights", "Findings about dependency cycles, unbuilt files and platforms", "application/json", "insights.json"},
	{"xcode://snapshot/meta", "Snapshot Metadata", "Metadata about the last snapshot generation", "application/json", "snapshot.meta.json"},
}

// registerResources adds MCP resources for snapshot artifacts.
func (s *Server) registerResources() {
	for _, r := range snapshotResources {
		s.mcp.AddResource(&mcp.Resource{
			URI:         r.uri,
			Name:        r.name,
			Description: r.description,
			MIMEType:    r.mimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			content, err := s.eng.GetArtifact(r.artifact)
			if err != nil {
				return nil, fmt.Errorf("no snapshot available: %w (run generate_snapshot first)", err)
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: req.Params.URI, Text: string(content), MIMEType: r.mimeType},
				},
			}, nil
		})
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to marshal results: %v", err))
	}
	return textResult(string(data))
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
