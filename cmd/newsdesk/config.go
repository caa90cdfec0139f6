// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/newsdesk/internal/inference"
	"github.com/pdiddy/newsdesk/internal/pipeline"
	"github.com/pdiddy/newsdesk/internal/search"
	"github.com/pdiddy/newsdesk/internal/secrets"
	"github.com/pdiddy/newsdesk/pkg/types"
)

// Built-in defaults for one run.
const (
	defaultTopic      = "اخبار روز و مهم ایران"
	defaultHashtags   = "#هوش_مصنوعی #تکنولوژی #علم"
	defaultSummarizer = "facebook/bart-large-cnn"
	defaultWriter     = "meta-llama/Meta-Llama-3-70B-Instruct"
	defaultEditor     = "mistralai/Mixtral-8x7B-Instruct-v0.1"
)

// setDefaults registers every configuration key with its default value.
// Keys must be known to v for environment overrides to reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.max_results", search.DefaultMaxResults)
	v.SetDefault("search.region", search.DefaultRegion)
	v.SetDefault("search.timeout", "30s")
	v.SetDefault("search.user_agent", "")

	v.SetDefault("inference.endpoint", inference.DefaultEndpoint)
	v.SetDefault("inference.api_token", "")
	v.SetDefault("inference.max_new_tokens", inference.DefaultMaxNewTokens)
	v.SetDefault("inference.max_retries", 0)
	v.SetDefault("inference.timeout", inference.DefaultTimeout.String())
	v.SetDefault("inference.user_agent", "")

	v.SetDefault("pipeline.topic", defaultTopic)
	v.SetDefault("pipeline.research_char_limit", pipeline.DefaultResearchCharLimit)
	v.SetDefault("pipeline.hashtags", defaultHashtags)
	v.SetDefault("pipeline.prompts_file", "")
	v.SetDefault("pipeline.models.summarizer.id", defaultSummarizer)
	v.SetDefault("pipeline.models.summarizer.kind", string(types.KindSummarization))
	v.SetDefault("pipeline.models.summarizer.style", string(types.StylePlain))
	v.SetDefault("pipeline.models.writer.id", defaultWriter)
	v.SetDefault("pipeline.models.writer.kind", string(types.KindGenerative))
	v.SetDefault("pipeline.models.writer.style", string(types.StyleLlama3))
	v.SetDefault("pipeline.models.editor.id", defaultEditor)
	v.SetDefault("pipeline.models.editor.kind", string(types.KindGenerative))
	v.SetDefault("pipeline.models.editor.style", string(types.StyleInst))

	v.SetDefault("publish.bot_token", "")
	v.SetDefault("publish.channel_id", "")
	v.SetDefault("publish.parse_mode", string(types.ParseMarkdown))
	v.SetDefault("publish.api_endpoint", "")
	v.SetDefault("publish.timeout", "30s")
	v.SetDefault("publish.user_agent", "")

	v.SetDefault("archive.path", "")
}

// bindEnv maps NEWSDESK_SECTION_KEY variables onto config keys and binds
// the unprefixed credential names the deployment environment already uses.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("NEWSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("inference.api_token", "NEWSDESK_INFERENCE_API_TOKEN", "HUGGINGFACE_API_TOKEN")
	_ = v.BindEnv("publish.bot_token", "NEWSDESK_PUBLISH_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("publish.channel_id", "NEWSDESK_PUBLISH_CHANNEL_ID", "TELEGRAM_CHANNEL_ID")
}

// loadConfig decodes v into a Config, fills credentials still missing from
// the secrets store and validates the result.
func loadConfig(v *viper.Viper, store secrets.Store) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Inference.APIToken = secretDefault(store, secrets.HuggingFaceToken, cfg.Inference.APIToken)
	cfg.Publish.BotToken = secretDefault(store, secrets.TelegramBotToken, cfg.Publish.BotToken)
	cfg.Publish.ChannelID = secretDefault(store, secrets.TelegramChannelID, cfg.Publish.ChannelID)

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// secretDefault returns current when set, otherwise the secret stored under key.
func secretDefault(store secrets.Store, key, current string) string {
	if current != "" {
		return current
	}
	return store.Get(key)
}

// currentConfig loads the process configuration for a subcommand.
func currentConfig() (types.Config, error) {
	return loadConfig(viper.GetViper(), loadedSecrets)
}
