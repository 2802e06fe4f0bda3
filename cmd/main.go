package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version information (can be set at build time)
var (
	version = "0.1.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deploy-helper",
	Short: "Define deployment projects and run their shell steps",
	Long: `deploy-helper keeps a catalogue of deployment projects (git repositories,
registry credentials per environment, reusable shell steps) and runs step
combinations against them, streaming command output to a terminal dashboard.

Usage:
  deploy-helper init          Create the configuration store
  deploy-helper run <combo>   Execute a step combination`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.PersistentFlags().String("store", "", "Path to the store file (default: user config directory)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-tui", false, "Disable the TUI dashboard and interactive prompts")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(stepCmd)
	rootCmd.AddCommand(comboCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging configures the default logger from --log-level
func setupLogging(cmd *cobra.Command, _ []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := log.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", levelName, err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		Prefix:          "deploy-helper",
		ReportTimestamp: level == log.DebugLevel,
	})
	log.SetDefault(logger)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
