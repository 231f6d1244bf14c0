package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goodtune/focuswatch/internal/api"
)

var (
	statsDays int
	statsJSON bool
	clearYes  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals, averages, the best day and an activity heatmap",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var clearStatsCmd = &cobra.Command{
	Use:   "clear-stats",
	Short: "Delete every recorded day",
	Args:  cobra.NoArgs,
	RunE:  runClearStats,
}

func init() {
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", api.DefaultStatsDays, "Number of days to show, ending today")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the raw snapshot as JSON")
	clearStatsCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(statsCmd, clearStatsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsDays < 1 || statsDays > api.MaxStatsDays {
		return fmt.Errorf("--days must be between 1 and %d", api.MaxStatsDays)
	}
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := clientContext()
	defer cancel()

	snap, err := client.Stats(ctx, statsDays)
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	renderStats(os.Stdout, snap)
	return nil
}

func runClearStats(cmd *cobra.Command, args []string) error {
	if !clearYes {
		fmt.Fprint(os.Stdout, "Delete all recorded focus time? [y/N] ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(os.Stdout, "Aborted")
			return nil
		}
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := clientContext()
	defer cancel()

	if err := client.ClearStats(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Stats cleared")
	return nil
}
