package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Start, pause or resume the timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := clientContext()
		defer cancel()

		status, err := client.Toggle(ctx)
		if err != nil {
			return err
		}
		renderStatus(os.Stdout, status)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Record the current session and stop the timer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := clientContext()
		defer cancel()

		before, err := client.Status(ctx)
		if err != nil {
			return err
		}
		status, err := client.Reset(ctx)
		if err != nil {
			return err
		}
		if before.ElapsedSeconds > 0 {
			fmt.Fprintf(os.Stdout, "Recorded %s\n", before.Elapsed)
		}
		renderStatus(os.Stdout, status)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer state and elapsed time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := clientContext()
		defer cancel()

		status, err := client.Status(ctx)
		if err != nil {
			return err
		}
		renderStatus(os.Stdout, status)
		return nil
	},
}

var persistCmd = &cobra.Command{
	Use:       "persist [on|off]",
	Short:     "Show or change whether the timer survives restarts",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runPersist,
}

func init() {
	rootCmd.AddCommand(toggleCmd, resetCmd, statusCmd, persistCmd)
}

func runPersist(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := clientContext()
	defer cancel()

	if len(args) == 1 {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		if err := client.SetPersist(ctx, enabled); err != nil {
			return err
		}
	}

	enabled, err := client.Persist(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Timer persistence: %s\n", onOff(enabled))
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
