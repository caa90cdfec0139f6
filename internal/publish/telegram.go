// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish delivers a run's final message. Delivery problems are
// reported in a types.PublishOutcome and never escape as errors, so a
// failed publish cannot change how a run ends.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/pdiddy/newsdesk/internal/httputil"
	"github.com/pdiddy/newsdesk/pkg/types"
)

// ErrNotConfigured marks a skipped publish: the bot token or the channel id
// is missing.
var ErrNotConfigured = errors.New("publishing credentials not configured")

// Telegram publishes messages to a channel through the Telegram Bot API.
type Telegram struct {
	cfg    types.PublishConfig
	client *http.Client
	log    *zap.Logger
}

// NewTelegram returns a Telegram publisher for cfg. A nil client gets one
// with cfg.Timeout; a nil logger discards output. No request is made until
// Publish is called.
func NewTelegram(cfg types.PublishConfig, client *http.Client, log *zap.Logger) *Telegram {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = httputil.NewClient(cfg.Timeout)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Telegram{cfg: cfg, client: client, log: log}
}

// Publish sends text to channelID. An empty channelID falls back to the
// configured one. Missing credentials skip delivery without any request.
func (t *Telegram) Publish(ctx context.Context, channelID, text string) types.PublishOutcome {
	cfg := t.cfg
	if channelID != "" {
		cfg.ChannelID = channelID
	}
	channelID = cfg.ChannelID
	log := t.log.With(zap.String("channel", channelID))
	if !cfg.Configured() {
		log.Warn("publish skipped", zap.Error(ErrNotConfigured))
		return types.PublishOutcome{Status: types.PublishSkipped, Err: ErrNotConfigured}
	}

	msgID, err := t.send(ctx, channelID, text)
	if err != nil {
		log.Error("publish failed", zap.Error(err))
		return types.PublishOutcome{Status: types.PublishFailed, Err: err}
	}
	log.Info("message published", zap.Int("message_id", msgID))
	return types.PublishOutcome{Status: types.PublishPublished, MessageID: msgID}
}

func (t *Telegram) send(ctx context.Context, channelID, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.cfg.BotToken, t.cfg.APIEndpoint, ctxClient{ctx: ctx, client: t.client})
	if err != nil {
		return 0, fmt.Errorf("connecting bot: %w", err)
	}

	msg := NewMessage(channelID, text)
	msg.ParseMode = string(t.cfg.ParseMode)
	sent, err := bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("sending message: %w", err)
	}
	return sent.MessageID, nil
}

// NewMessage addresses text to channelID. Numeric ids are chat ids; any
// other value is a public channel username, with or without the leading @.
func NewMessage(channelID, text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	if !strings.HasPrefix(channelID, "@") {
		channelID = "@" + channelID
	}
	return tgbotapi.NewMessageToChannel(channelID, text)
}

// ctxClient binds the run context to every request the bot library makes.
type ctxClient struct {
	ctx    context.Context
	client *http.Client
}

func (c ctxClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}
