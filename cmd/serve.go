package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/desktop-extract/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing page listing and extraction",
	Long: `Start a Model Context Protocol (MCP) server with the tools pages,
extract_page and extract_rows. Tool calls are serialized: the desktop app
has a single UI.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  desktop-extract serve
  desktop-extract serve --transport streamable-http --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	port, _ := cmd.Flags().GetInt("port")

	e, err := newEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	srv := server.New(server.Deps{
		Pages:      e.sidebar,
		Extract:    e.orchestrator(e.sidebar, nil),
		RowBatch:   e.orchestrator(e.rows, nil),
		Rows:       e.rows,
		API:        e.itemLister(),
		Collection: cfg.NotionCollection,
		Log:        logger,
	})
	return srv.Serve(server.Config{Transport: transport, Port: port})
}
