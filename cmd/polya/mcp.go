package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/polya/internal/cli"
	"github.com/aretw0/polya/internal/logging"
	mcpadapter "github.com/aretw0/polya/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Exposes the session operations as Model Context Protocol tools, so an
assistant can guide a learner through an exercise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		// Stdout belongs to the protocol on stdio, so logs always go to Stderr.
		level := logging.ParseLevel(cfg.LogLevel)
		if debugEnabled(cmd) {
			level = logging.ParseLevel("debug")
		}
		logger := logging.NewWithWriter(os.Stderr, logging.FormatJSON, level)

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		persistence, err := cli.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer persistence.Close()
		engine, err := cli.NewEngine(cfg, logger, persistence.ProgressHooks(cfg.Tutor.UserID, logger))
		if err != nil {
			return err
		}

		srv := mcpadapter.NewServer(engine, persistence.Manager(logger), logger)
		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			return srv.ServeSSE(ctx, addr)
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Listen address for the sse transport")
}
