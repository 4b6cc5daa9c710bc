package main

import (
	"context"

	"github.com/aretw0/teiinfo/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves the corpus, schema analysis and validation as a JSON API, with Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunServe(ctx, app, cmd.ErrOrStderr(), addr)
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the corpus to AI agents as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunMCP(ctx, app, transport, addr)
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [schema]",
	Short: "Report on documents as they change, validating them when a schema is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := ""
		if len(args) > 0 {
			schema = args[0]
		}
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RunWatch(ctx, app, cmd.OutOrStdout(), schema)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd, watchCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default: http.addr of the config)")
	mcpCmd.Flags().StringP("transport", "t", cli.TransportStdio, "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Listen address for the sse transport")
}
