package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout. Zero leaves the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the research step.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults bounds the number of snippets collected (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Region is the provider region code (default "wt-wt", no region).
	Region string `json:"region" yaml:"region" mapstructure:"region"`
}

// ModelKind selects the request/response shape a backend speaks.
type ModelKind string

const (
	KindSummarization ModelKind = "summarization"
	KindGenerative    ModelKind = "generative"
)

// PromptStyle selects how instruction prompts are wrapped for a backend.
type PromptStyle string

const (
	StylePlain  PromptStyle = "plain"
	StyleInst   PromptStyle = "inst"
	StyleLlama3 PromptStyle = "llama3"
)

// ModelSpec identifies an inference backend and how to talk to it. Kind and
// Style may be left empty in configuration; they are resolved from the ID
// before the pipeline starts.
type ModelSpec struct {
	ID    string      `json:"id" yaml:"id" mapstructure:"id"`
	Kind  ModelKind   `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Style PromptStyle `json:"style,omitempty" yaml:"style,omitempty" mapstructure:"style"`
}

// InferenceConfig holds settings for the inference backends.
type InferenceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the base URL; requests go to Endpoint + "/" + model ID.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIToken is sent as a bearer token.
	APIToken string `json:"api_token,omitempty" yaml:"api_token,omitempty" mapstructure:"api_token"`

	// MaxNewTokens caps generation length for generative backends (default 1024).
	MaxNewTokens int `json:"max_new_tokens" yaml:"max_new_tokens" mapstructure:"max_new_tokens"`

	// MaxRetries opts in to 429/503 retries per call. Zero makes one attempt.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ModelsConfig names the backend used by each generation stage.
type ModelsConfig struct {
	Summarizer ModelSpec `json:"summarizer" yaml:"summarizer" mapstructure:"summarizer"`
	Writer     ModelSpec `json:"writer" yaml:"writer" mapstructure:"writer"`
	Editor     ModelSpec `json:"editor" yaml:"editor" mapstructure:"editor"`
}

// PipelineConfig holds settings for one post-generation run.
type PipelineConfig struct {
	// Topic is the subject searched for and written about.
	Topic string `json:"topic" yaml:"topic" mapstructure:"topic"`

	// ResearchCharLimit caps the research text sent to the summarizer, in characters.
	ResearchCharLimit int `json:"research_char_limit" yaml:"research_char_limit" mapstructure:"research_char_limit"`

	// Hashtags is appended to every published message.
	Hashtags string `json:"hashtags" yaml:"hashtags" mapstructure:"hashtags"`

	// PromptsFile optionally overrides the writer and editor prompts.
	PromptsFile string `json:"prompts_file,omitempty" yaml:"prompts_file,omitempty" mapstructure:"prompts_file"`

	Models ModelsConfig `json:"models" yaml:"models" mapstructure:"models"`
}

// ParseMode is the Telegram markup mode. Empty disables markup parsing.
type ParseMode string

const (
	ParseNone     ParseMode = ""
	ParseMarkdown ParseMode = "Markdown"
	ParseHTML     ParseMode = "HTML"
)

// PublishConfig holds settings for the publishing channel.
type PublishConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	BotToken  string    `json:"bot_token,omitempty" yaml:"bot_token,omitempty" mapstructure:"bot_token"`
	ChannelID string    `json:"channel_id" yaml:"channel_id" mapstructure:"channel_id"`
	ParseMode ParseMode `json:"parse_mode" yaml:"parse_mode" mapstructure:"parse_mode"`

	// APIEndpoint overrides the Bot API URL pattern (two %s verbs: token, method).
	APIEndpoint string `json:"api_endpoint,omitempty" yaml:"api_endpoint,omitempty" mapstructure:"api_endpoint"`
}

// Configured reports whether both credentials needed for delivery are present.
func (c PublishConfig) Configured() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

// ArchiveConfig holds settings for the optional run archive.
type ArchiveConfig struct {
	// Path is the SQLite database file. Empty disables archiving.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
}

// Config groups every component configuration. It is built once at process
// start and handed to component constructors.
type Config struct {
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Inference InferenceConfig `json:"inference" yaml:"inference" mapstructure:"inference"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Publish   PublishConfig   `json:"publish" yaml:"publish" mapstructure:"publish"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive" mapstructure:"archive"`
}

// Validate checks the configuration for values no run could succeed with.
func (c Config) Validate() error {
	if c.Pipeline.Topic == "" {
		return fmt.Errorf("pipeline.topic is empty")
	}
	if c.Pipeline.ResearchCharLimit <= 0 {
		return fmt.Errorf("pipeline.research_char_limit must be positive, got %d", c.Pipeline.ResearchCharLimit)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Inference.Endpoint == "" {
		return fmt.Errorf("inference.endpoint is empty")
	}
	if c.Inference.MaxNewTokens <= 0 {
		return fmt.Errorf("inference.max_new_tokens must be positive, got %d", c.Inference.MaxNewTokens)
	}
	models := map[string]ModelSpec{
		"summarizer": c.Pipeline.Models.Summarizer,
		"writer":     c.Pipeline.Models.Writer,
		"editor":     c.Pipeline.Models.Editor,
	}
	for name, m := range models {
		if m.ID == "" {
			return fmt.Errorf("pipeline.models.%s.id is empty", name)
		}
		switch m.Kind {
		case "", KindSummarization, KindGenerative:
		default:
			return fmt.Errorf("pipeline.models.%s.kind: unknown kind %q", name, m.Kind)
		}
		switch m.Style {
		case "", StylePlain, StyleInst, StyleLlama3:
		default:
			return fmt.Errorf("pipeline.models.%s.style: unknown style %q", name, m.Style)
		}
	}
	switch c.Publish.ParseMode {
	case ParseNone, ParseMarkdown, ParseHTML:
	default:
		return fmt.Errorf("publish.parse_mode: unknown mode %q", c.Publish.ParseMode)
	}
	return nil
}
