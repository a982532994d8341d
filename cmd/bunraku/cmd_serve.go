package main

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"bunraku/internal/logging"
	"bunraku/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bunraku MCP server (stdio transport)",
	Long: `Serve exposes the scheduler over the Model Context Protocol so an agent
can load a scenario, step the world, queue and cancel activities, and
inspect activity trees interactively. The server speaks JSON-RPC on
stdin/stdout and exits when its parent process goes away.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv := mcp.NewServer(version)
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcp.WatchParent(ctx, cancel)

	log := logging.New("serve")
	log.Info("starting MCP server", "version", version)

	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
