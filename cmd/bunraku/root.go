package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bunraku/internal/activity"
	"bunraku/internal/config"
	"bunraku/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
	strict    bool
}

// rootCfg holds the environment configuration resolved in setup.
// Commands read it for defaults that have no dedicated flag value.
var rootCfg config.Config

var rootCmd = &cobra.Command{
	Use:   "bunraku",
	Short: "Tick-driven activity scheduler for simulated actors",
	Long: `Bunraku runs scenarios of actors that execute cooperative activity graphs,
one tick at a time. Scenarios are YAML files describing actors, their queued
activities (waits, logs, series, repeats, Lua scripts) and timed world events.

Use "run" to execute scenarios, "trace" to inspect activity trees mid-run,
"validate" to check scenario files, and "serve" to expose the scheduler as
an MCP server for agent-driven sessions.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: setup,
}

// setup resolves logging and scheduler settings before any command runs.
// Environment values from config.FromEnv apply unless the flag was set
// explicitly on the command line.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	rootCfg = cfg

	if !cmd.Flags().Changed("log-level") {
		rootFlags.logLevel = cfg.LogLevel
	}
	if !cmd.Flags().Changed("log-format") {
		rootFlags.logFormat = cfg.LogFormat
	}
	if !cmd.Flags().Changed("strict") {
		rootFlags.strict = cfg.Strict
	}

	level, err := logging.ParseLevel(rootFlags.logLevel)
	if err != nil {
		return err
	}
	logging.Init(level, rootFlags.logFormat)
	activity.SetStrictChecking(rootFlags.strict)
	return nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text or json)")
	pf.BoolVar(&rootFlags.strict, "strict", false, "Panic on scheduler misuse instead of counting it")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
