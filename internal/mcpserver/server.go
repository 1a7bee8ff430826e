// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes climap tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/climap/internal/apperr"
	"github.com/starford/climap/internal/catalog"
	"github.com/starford/climap/internal/ccl"
	"github.com/starford/climap/internal/identity"
)

const formatURI = "climap://ccl-format"

// Server wraps the MCP server with climap tools.
type Server struct {
	mcp *server.MCPServer
	svc *catalog.Service
}

// New creates a new MCP server with all climap tools registered.
func New(svc *catalog.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"climap",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("lookup_package",
		mcp.WithDescription("Look up a package database entry by name (case-insensitive). "+
			"Returns the entry in database format."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Package name, e.g. ripgrep or @biomejs/biome")),
	), s.lookupPackage)

	s.mcp.AddTool(mcp.NewTool("list_packages",
		mcp.WithDescription("List package names in the database, optionally only those available from one source."),
		mcp.WithString("source", mcp.Description("Optional source id (brew, scoop, npm, ...)")),
	), s.listPackages)

	s.mcp.AddTool(mcp.NewTool("search_candidates",
		mcp.WithDescription("Search the ranked candidates of the latest crossref run. "+
			"An empty query returns the top candidates."),
		mcp.WithString("query", mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchCandidates)

	s.mcp.AddTool(mcp.NewTool("validate_database",
		mcp.WithDescription("Validate the package database and return the issue report."),
		mcp.WithBoolean("strict", mcp.Description("Treat unrecognized lines as errors")),
	), s.validateDatabase)

	s.mcp.AddTool(mcp.NewTool("normalize_name",
		mcp.WithDescription("Return the identity key used to match a package name across sources."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Raw package name")),
	), s.normalizeName)

	s.mcp.AddTool(mcp.NewTool("get_format_contract",
		mcp.WithDescription("Returns the package database format contract. "+
			"Call this before proposing new entries."),
	), s.getFormatContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Package Database Format",
			mcp.WithResourceDescription("Format of the climap package database."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) lookupPackage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.Lookup(name)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(ccl.SerializeEntry(e)), nil
}

func (s *Server) listPackages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.ListPackages(req.GetString("source", ""))
	if err != nil {
		return toolError(err), nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) searchCandidates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cands, err := s.svc.Candidates(req.GetString("query", ""), req.GetInt("limit", 20))
	if err != nil {
		return toolError(err), nil
	}
	if len(cands) == 0 {
		return mcp.NewToolResultText("no candidates found"), nil
	}
	out, _ := json.MarshalIndent(cands, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validateDatabase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Validate(req.GetBool("strict", false))
	if err != nil {
		return toolError(err), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n", rep.Status())
	fmt.Fprintf(&b, "Packages: %d (%d simple, %d complex)\n", rep.Stats.Total, rep.Stats.Simple, rep.Stats.Complex)
	for _, i := range rep.Issues {
		b.WriteString(i.String() + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) normalizeName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(identity.Normalize(name)), nil
}

func (s *Server) getFormatContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FormatContract), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     FormatContract,
		},
	}, nil
}
