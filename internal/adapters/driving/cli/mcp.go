package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/evidence-rag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes a retrieve tool, an ask tool and the evidence-request
table as resources. By default it communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  evidence-rag mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  evidence-rag mcp serve --port 8081

Assistant configuration:
  {
    "mcpServers": {
      "evidence-rag": {
        "command": "/path/to/evidence-rag",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Annotations: needs(needsUpstream),
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	a, err := current("retrieval service", func(a *App) bool { return a.Retrieval != nil })
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval: a.Retrieval,
		Query:     a.Query,
		Evidence:  a.Evidence,
	})
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
