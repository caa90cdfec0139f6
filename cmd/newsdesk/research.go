// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run only the research step and print the collected text",
	Long: `Research searches DuckDuckGo for the topic and prints the joined snippet
text the summarizer would receive. No model is called and nothing is
published.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("topic", "", "override the configured topic")
	researchCmd.Flags().Int("max-results", 0, "maximum number of results (default from config)")
	researchCmd.Flags().Bool("json", false, "output the research result as JSON")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		topic = cfg.Pipeline.Topic
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	research := newCollector(cfg).Research(context.Background(), topic, maxResults)

	if jsonOutput {
		out := struct {
			Topic    string `json:"topic"`
			Text     string `json:"text"`
			Snippets int    `json:"snippets"`
			Error    string `json:"error,omitempty"`
		}{Topic: topic, Text: research.Text, Snippets: research.Snippets}
		if research.Err != nil {
			out.Error = research.Err.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if research.Empty() {
		if research.Err != nil {
			return fmt.Errorf("research failed: %w", research.Err)
		}
		return fmt.Errorf("research failed: no results for %q", topic)
	}
	fmt.Println(research.Text)
	fmt.Fprintf(os.Stderr, "\n%d snippets\n", research.Snippets)
	return nil
}
