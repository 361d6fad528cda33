// Package server exposes page listing and extraction as MCP tools.
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mj1618/desktop-extract/internal/acquire"
	"github.com/mj1618/desktop-extract/internal/model"
	"github.com/mj1618/desktop-extract/internal/version"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
}

// Pager lists the sidebar pages.
type Pager interface {
	Pages() ([]string, error)
}

// Batch runs targets through the strategy cascade. *acquire.Orchestrator
// implements it.
type Batch interface {
	Run(ctx context.Context, targets []model.NavigationTarget) (*acquire.Report, error)
}

// Deps are the engine pieces the tools call into. API may be nil.
type Deps struct {
	Pages      Pager
	Extract    Batch // resolves targets against the sidebar
	RowBatch   Batch // resolves targets against collection rows
	Rows       acquire.RowLister
	API        acquire.ItemLister
	Collection string
	Log        zerolog.Logger
}

// Server wraps the MCP server. The desktop app has a single UI, so every
// tool call holds mu for its whole run.
type Server struct {
	deps Deps
	mu   sync.Mutex
	mcp  *mcpserver.MCPServer
}

// New creates an MCP server with all tools registered.
func New(d Deps) *Server {
	s := &Server{deps: d}
	s.mcp = mcpserver.NewMCPServer("desktop-extract", version.Version)
	s.registerTools()
	return s
}

// Serve starts the server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "", "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		s.deps.Log.Info().Int("port", cfg.Port).Msg("serving MCP over streamable HTTP")
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	// pages
	s.mcp.AddTool(
		mcp.NewTool("pages",
			mcp.WithDescription("List the page names in the Notion sidebar, top to bottom, with their 0-based index"),
		),
		s.handlePages,
	)

	// extract_page
	s.mcp.AddTool(
		mcp.NewTool("extract_page",
			mcp.WithDescription("Navigate to one page and extract its content as ordered blocks. Give a name, a sidebar index, or a Notion page ID. The app returns to the starting page afterwards."),
			mcp.WithString("name", mcp.Description("Page name, fuzzy-matched against the sidebar")),
			mcp.WithNumber("index", mcp.Description("0-based sidebar position")),
			mcp.WithString("id", mcp.Description("Notion page ID (uses the API when a token is configured)")),
		),
		s.handleExtractPage,
	)

	// extract_rows
	s.mcp.AddTool(
		mcp.NewTool("extract_rows",
			mcp.WithDescription("Open and extract each row of the collection shown on the current page, returning to the collection between rows"),
			mcp.WithString("collection", mcp.Description("Notion database ID; lists rows through the API instead of the screen")),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to extract (0 = all)")),
		),
		s.handleExtractRows,
	)
}
