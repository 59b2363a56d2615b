package cli

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/shelfsearch/internal/adapters/driving/mcp"
	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

var (
	serveHTTP bool
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP tool gateway",
	Long: `Start the Model Context Protocol server exposing the library as tools:

  fulltext_search(query, limit)       search titles and descriptions
  get_excerpt(isbn, max_chars)        read a book's description
  research(question, conversation_id) run a full research turn

By default the server speaks JSON-RPC over stdio, which is what desktop
AI assistants expect. Use --http to serve streamable HTTP instead, with
/healthz and /metrics alongside /mcp.

Examples:
  # Stdio mode (default)
  shelfsearch serve

  # HTTP mode on the configured server.host and server.port
  shelfsearch serve --http

  # HTTP mode on an explicit port
  shelfsearch serve --http --port 9000

Assistant configuration:
  {
    "mcpServers": {
      "shelfsearch": {
        "command": "/path/to/shelfsearch",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "serve streamable HTTP instead of stdio")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "HTTP host (default server.host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (default server.port); implies --http")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	ports := &mcp.Ports{
		Library:  libraryService,
		Research: researchService,
		Settings: settingsService,
		Metrics:  metricsRecorder,
	}
	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	stop := startBackground(cmd.Context())
	defer stop()

	if !serveHTTP && servePort == 0 {
		return server.Run(cmd.Context())
	}

	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	addr := listenAddr(serveHost, servePort, settings.Server)
	cmd.Printf("MCP server listening on http://%s/mcp\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}

// listenAddr applies flag values over the configured server address.
func listenAddr(host string, port int, cfg domain.ServerSettings) string {
	if host == "" {
		host = cfg.Host
	}
	if port == 0 {
		port = cfg.Port
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
