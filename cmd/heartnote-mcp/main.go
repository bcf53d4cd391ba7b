package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/mcp"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

var version = "dev"

func newCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "heartnote-mcp",
		Short:        "Serve the HeartNote write tool over MCP stdio",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// stdout carries the protocol
			logger.SetOutput(os.Stderr)
			logger.SetFormat(cfg.Log.Format)
			logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := pipeline.NewFromConfig(ctx, cfg)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(p, "heartnote", version)
			if err := srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (.json, .yaml or .toml)")
	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		logger.ErrorCF("mcp", "Server stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
