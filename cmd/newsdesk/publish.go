// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/newsdesk/internal/pipeline"
	"github.com/pdiddy/newsdesk/internal/publish"
	"github.com/pdiddy/newsdesk/pkg/types"
)

var publishCmd = &cobra.Command{
	Use:   "publish <text>",
	Short: "Send text to the configured Telegram channel",
	Long: `Publish delivers the given text through the same publisher the pipeline
uses, with the configured parse mode. The text is escaped for that mode so it
arrives literally; pass --raw to send your own markup. Use it to check bot
credentials and channel access.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().String("channel", "", "override the configured channel id")
	publishCmd.Flags().Bool("raw", false, "send the text without escaping it for the parse mode")

	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := currentConfig()
	if err != nil {
		return err
	}
	channel, _ := cmd.Flags().GetString("channel")
	if channel == "" {
		channel = cfg.Publish.ChannelID
	}
	raw, _ := cmd.Flags().GetBool("raw")

	pub := publish.NewTelegram(cfg.Publish, nil, logger.Named("publish"))
	outcome := pub.Publish(context.Background(), channel, publishText(args, cfg.Publish.ParseMode, raw))
	switch outcome.Status {
	case types.PublishPublished:
		fmt.Printf("Published message %d to %s\n", outcome.MessageID, channel)
		return nil
	default:
		return fmt.Errorf("publish %s: %w", outcome.Status, outcome.Err)
	}
}

// publishText joins args into the message body, escaped for mode unless raw.
func publishText(args []string, mode types.ParseMode, raw bool) string {
	text := strings.Join(args, " ")
	if raw {
		return text
	}
	return pipeline.EscapeText(text, mode)
}
