// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/newsdesk/internal/inference"
	"github.com/pdiddy/newsdesk/pkg/types"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <prompt>",
	Short: "Send one prompt to an inference backend and print the answer",
	Long: `Invoke calls a single backend through the same adapter the pipeline uses.
The request shape follows --kind; when it is omitted the kind is derived from
the model identifier. The prompt is sent as given, without style wrapping.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInvoke,
}

func init() {
	invokeCmd.Flags().String("model", "", "model identifier, e.g. facebook/bart-large-cnn (required)")
	invokeCmd.Flags().String("kind", "", "request kind: summarization or generative")
	_ = invokeCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	modelID, _ := cmd.Flags().GetString("model")
	kind, _ := cmd.Flags().GetString("kind")

	spec := types.ModelSpec{ID: modelID, Kind: types.ModelKind(kind)}
	switch spec.Kind {
	case "", types.KindSummarization, types.KindGenerative:
	default:
		return fmt.Errorf("unknown kind %q: use summarization or generative", kind)
	}

	adapter := inference.NewAdapter(cfg.Inference, nil, logger.Named("inference"))
	reply := adapter.Invoke(context.Background(), spec, strings.Join(args, " "))
	fmt.Println(reply.Text)
	if reply.Err != nil {
		return fmt.Errorf("model %s: %w", modelID, reply.Err)
	}
	return nil
}
