// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/newsdesk/internal/archive"
	"github.com/pdiddy/newsdesk/internal/inference"
	"github.com/pdiddy/newsdesk/internal/pipeline"
	"github.com/pdiddy/newsdesk/internal/publish"
	"github.com/pdiddy/newsdesk/internal/search"
	"github.com/pdiddy/newsdesk/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once: research, condense, draft, polish, publish",
	Long: `Run performs one complete post-generation run for the configured topic.
Research results are condensed by the summarizer model, drafted by the writer
model, polished by the editor model and published to the Telegram channel.

A failing model call leaves a placeholder in the post instead of stopping the
run. Empty research aborts the run before any model is called. Both cases
exit with status 0; use --json to inspect the full run report.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("topic", "", "override the configured topic")
	runCmd.Flags().Bool("dry-run", false, "print the final message instead of publishing it")
	runCmd.Flags().Bool("json", false, "print the run report as JSON")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	if topic, _ := cmd.Flags().GetString("topic"); topic != "" {
		cfg.Pipeline.Topic = topic
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub pipeline.Publisher = publish.NewTelegram(cfg.Publish, nil, logger.Named("publish"))
	if dryRun {
		pub = publish.Writer{W: os.Stdout}
	}

	p, err := pipeline.New(cfg,
		newCollector(cfg),
		inference.NewAdapter(cfg.Inference, nil, logger.Named("inference")),
		pub,
		logger.Named("pipeline"))
	if err != nil {
		return err
	}

	report := p.Run(ctx)
	recordRun(ctx, cfg.Archive, report)

	if jsonOutput {
		return writeReportJSON(os.Stdout, report)
	}
	printReport(os.Stderr, report)
	return nil
}

// newCollector wires the research step to the DuckDuckGo provider.
func newCollector(cfg types.Config) *search.Collector {
	return search.NewCollector(search.NewDuckDuckGo(cfg.Search), cfg.Search, logger.Named("search"))
}

// recordRun stores report in the archive when one is configured. Archive
// problems are logged and never change the run outcome.
func recordRun(ctx context.Context, cfg types.ArchiveConfig, report types.RunReport) {
	store, err := archive.Open(cfg)
	if errors.Is(err, archive.ErrDisabled) {
		return
	}
	if err != nil {
		logger.Warn("archive unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.Record(context.WithoutCancel(ctx), report); err != nil {
		logger.Warn("archiving run failed", zap.String("run_id", report.RunID), zap.Error(err))
	}
}

// reportJSON is the printable form of a RunReport with errors as strings.
type reportJSON struct {
	types.RunReport
	Status       string   `json:"status"`
	Degraded     bool     `json:"degraded"`
	ResearchErr  string   `json:"research_error,omitempty"`
	StageErrors  []string `json:"stage_errors,omitempty"`
	PublishError string   `json:"publish_error,omitempty"`
}

func writeReportJSON(w io.Writer, report types.RunReport) error {
	out := reportJSON{
		RunReport: report,
		Status:    report.Status(),
		Degraded:  report.Degraded(),
	}
	if report.Research.Err != nil {
		out.ResearchErr = report.Research.Err.Error()
	}
	for _, s := range report.Stages {
		if s.Err != nil {
			out.StageErrors = append(out.StageErrors, s.Err.Error())
		}
	}
	if report.Publish.Err != nil {
		out.PublishError = report.Publish.Err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printReport(w io.Writer, report types.RunReport) {
	fmt.Fprintf(w, "Run %s: %s\n", report.RunID, report.Status())
	if report.Aborted {
		fmt.Fprintf(w, "  aborted: %s\n", report.AbortReason)
		return
	}
	fmt.Fprintf(w, "  research: %d snippets, %d characters\n",
		report.Research.Snippets, len([]rune(report.Research.Text)))
	for _, s := range report.Stages {
		state := "ok"
		if s.Failed() {
			state = "degraded: " + s.Err.Error()
		}
		fmt.Fprintf(w, "  %-8s  %-45s  %s\n", s.Stage, s.Model, state)
	}
	switch report.Publish.Status {
	case types.PublishPublished:
		fmt.Fprintf(w, "  published as message %d\n", report.Publish.MessageID)
	case types.PublishFailed, types.PublishSkipped:
		if report.Publish.Err != nil {
			fmt.Fprintf(w, "  publish %s: %v\n", report.Publish.Status, report.Publish.Err)
		}
	}
}
