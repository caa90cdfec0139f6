// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/newsdesk/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived runs, most recent first",
	Long: `History reads the run archive configured under archive.path and lists
past runs with their status. The archive is disabled when archive.path is
empty.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", archive.DefaultListLimit, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := archive.Open(cfg.Archive)
	if errors.Is(err, archive.ErrDisabled) {
		return fmt.Errorf("no archive configured: set archive.path")
	}
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	printHistory(os.Stdout, runs)
	return nil
}

func printHistory(w io.Writer, runs []archive.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs archived.")
		return
	}

	fmt.Fprintf(w, "%-20s  %-10s  %-8s  %-8s  %s\n", "Started", "Status", "Degraded", "Message", "Topic")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, r := range runs {
		degraded := "no"
		if r.Degraded {
			degraded = "yes"
		}
		msg := "-"
		if r.MessageID != 0 {
			msg = fmt.Sprintf("%d", r.MessageID)
		}
		fmt.Fprintf(w, "%-20s  %-10s  %-8s  %-8s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, degraded, msg, r.Topic)
	}
	fmt.Fprintf(w, "\n%d runs\n", len(runs))
}
