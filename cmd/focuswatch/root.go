package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	version     = "dev"
	configPath  string
	controlAddr string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "focuswatch",
	Short: "focuswatch - focus stopwatch with a daily time ledger",
	Long: `focuswatch is a manually toggled focus stopwatch. A background daemon owns
the timer and records finished sessions into a per-day ledger; the other
commands drive the daemon and report totals, averages, the best day and an
activity heatmap.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&controlAddr, "addr", "", "Control API address (overrides server.control_addr)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "focuswatch", "config.yaml")
	}
	return "focuswatch.yaml"
}
