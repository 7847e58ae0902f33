package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wingman",
		Short: "Wingman - read the signals, pick the next move",
		Long: `wingman analyzes what happened with someone you're interested in.

It scores interest signals in your narrative and chat history, reads the
other person's profile, mood and communication style, checks for red
flags, and recommends tactics, a reply and a next step. Everything is
driven by a YAML rulebook that can be swapped at runtime.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.wingman/config.yaml)")
	rootCmd.PersistentFlags().String("rules", "", "Rulebook YAML file (default: embedded rules)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAnalyzeCmd(),
		newRulesCmd(),
		newHistoryCmd(),
		newServeCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
	)

	return rootCmd
}
