package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/wingman/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run as an MCP server over stdio",
		Long: `Run wingman as a Model Context Protocol server over stdio.

Tools:
  wingman_analyze       Analyze an interaction and recommend a next move
  wingman_reload_rules  Reload the configured rulebook file
  wingman_history       List or fetch stored analyses

Resources:
  wingman://rules/summary

Tool calls are recorded (without narrative text) in audit.jsonl under
logging.dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd, appOptions{store: true, events: true})
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "wingman",
				Version:  version,
				AuditDir: a.cfg.Logging.Dir,
				Logger:   a.logger,
			}, a.svc)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			a.logger.Info("wingman MCP server starting", "version", version, "rules", a.svc.Rules().Version)
			return server.Run(cmd.Context())
		},
	}
}
