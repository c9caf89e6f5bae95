// Package mcpserver exposes the documentation site to LLM clients over the
// Model Context Protocol (stdio transport).
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/rtfm/internal/apperr"
	"github.com/starford/rtfm/internal/models"
)

const navURI = "rtfm://nav"

// Docs is the read side the tools query.
type Docs interface {
	Nav(ctx context.Context) ([]models.NavNode, error)
	Document(ctx context.Context, path string) (*models.Document, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	Commit(ctx context.Context) (models.CommitInfo, error)
}

// Server wraps the MCP server with the documentation tools.
type Server struct {
	mcp  *server.MCPServer
	docs Docs
}

// New creates an MCP server named after the site with all tools registered.
func New(name, version string, docs Docs) *Server {
	s := &Server{docs: docs}

	s.mcp = server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_nav",
		mcp.WithDescription("Return the documentation navigation tree as JSON. "+
			"File nodes carry the path to pass to read_doc."),
	), s.getNav)

	s.mcp.AddTool(mcp.NewTool("search_docs",
		mcp.WithDescription("Search document titles and bodies. Title matches rank first; at most 10 hits."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text, at least 2 characters")),
	), s.searchDocs)

	s.mcp.AddTool(mcp.NewTool("read_doc",
		mcp.WithDescription("Read one document: title, front-matter, rendered HTML and last-modified time."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path without extension (e.g. guides/install)")),
	), s.readDoc)

	s.mcp.AddTool(mcp.NewTool("get_commit",
		mcp.WithDescription("Return the head commit of the documentation repository."),
	), s.getCommit)

	s.mcp.AddResource(
		mcp.NewResource(navURI, "Navigation tree",
			mcp.WithResourceDescription("The documentation navigation tree."),
			mcp.WithMIMEType("application/json"),
		),
		s.readNavResource,
	)

	return s
}

// ServeStdio serves the protocol on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNav(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tree, err := s.docs.Nav(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tree)
}

func (s *Server) searchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.docs.Search(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no documents found"), nil
	}
	return jsonResult(hits)
}

func (s *Server) readDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = strings.TrimSuffix(strings.TrimPrefix(path, "/"), ".md")
	doc, err := s.docs.Document(ctx, path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("Document not found: " + path), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) getCommit(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.docs.Commit(ctx)
	if err != nil {
		return mcp.NewToolResultError("Failed to get commit info"), nil
	}
	return jsonResult(info)
}

func (s *Server) readNavResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tree, err := s.docs.Nav(ctx)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      navURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}
