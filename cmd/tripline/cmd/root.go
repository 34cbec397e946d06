package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// configPath is the shared --config flag: a YAML file matching
// internal/config.File. Every subcommand that builds a Guard reads it.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "tripline",
	Short: "Leave-one-out attribution guardrail for agent tool calls",
	Long:  "Detects indirect prompt injection by comparing how much each untrusted tool result and the user's own request shift the log-probability of a proposed tool call, then sanitizes and regenerates when a tool result dominates.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the guard configuration YAML file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
