package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/mrt/internal/logging"
	mcpadapter "github.com/aretw0/mrt/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes trial planning, response scoring and result summaries as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := experimentConfig(settings)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if settings.GetBool("debug") {
			level = slog.LevelDebug
		}
		// Stdout carries JSON-RPC; logs go to stderr.
		logger := logging.New(level)
		log.SetOutput(os.Stderr)

		srv, err := mcpadapter.NewServer(cfg, mcpadapter.WithLogger(logger))
		if err != nil {
			return err
		}

		switch transport := settings.GetString("transport"); transport {
		case "stdio":
			logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ServeSSE(ctx, settings.GetInt("port"))
		default:
			return fmt.Errorf("unknown transport %q (use stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the sse transport")
}
