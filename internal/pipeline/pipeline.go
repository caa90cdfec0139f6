// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes one post-generation run: research, condense,
// draft, polish and publish, strictly in that order. Stage failures degrade
// to placeholder text that flows forward; only empty research stops a run.
package pipeline

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/newsdesk/internal/inference"
	"github.com/pdiddy/newsdesk/pkg/types"
)

// ErrResearchEmpty is the abort cause when research produced no text.
var ErrResearchEmpty = errors.New("research failed")

// DefaultResearchCharLimit bounds the research text sent to the summarizer.
const DefaultResearchCharLimit = 4000

// Researcher gathers the research text for a topic. *search.Collector
// satisfies it.
type Researcher interface {
	Research(ctx context.Context, topic string, maxResults int) types.Research
}

// Publisher delivers the final message. Implementations report failure in
// the outcome instead of returning an error.
type Publisher interface {
	Publish(ctx context.Context, channelID, text string) types.PublishOutcome
}

// Pipeline runs the post-generation stages against its collaborators.
type Pipeline struct {
	cfg        types.Config
	researcher Researcher
	invoker    Invoker
	publisher  Publisher
	prompts    *compiledPrompts
	log        *zap.Logger

	now   func() time.Time
	newID func() string
}

// Option customizes a Pipeline.
type Option func(*Pipeline) error

// WithPrompts replaces the prompts loaded from configuration.
func WithPrompts(p Prompts) Option {
	return func(pl *Pipeline) error {
		c, err := p.compile()
		if err != nil {
			return err
		}
		pl.prompts = c
		return nil
	}
}

// WithClock sets the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) error {
		pl.now = now
		return nil
	}
}

// WithRunID sets the run identifier generator.
func WithRunID(newID func() string) Option {
	return func(pl *Pipeline) error {
		pl.newID = newID
		return nil
	}
}

// New builds a Pipeline from cfg. Model kinds and styles left empty in cfg
// are resolved here, once per run. The prompts file named in cfg, if any,
// is loaded unless WithPrompts is given.
func New(cfg types.Config, r Researcher, inv Invoker, pub Publisher, log *zap.Logger, opts ...Option) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	models := &cfg.Pipeline.Models
	models.Summarizer = inference.Resolve(models.Summarizer)
	models.Writer = inference.Resolve(models.Writer)
	models.Editor = inference.Resolve(models.Editor)
	if cfg.Pipeline.ResearchCharLimit <= 0 {
		cfg.Pipeline.ResearchCharLimit = DefaultResearchCharLimit
	}

	p := &Pipeline{
		cfg:        cfg,
		researcher: r,
		invoker:    inv,
		publisher:  pub,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.prompts == nil {
		prompts := DefaultPrompts()
		if cfg.Pipeline.PromptsFile != "" {
			loaded, err := LoadPrompts(cfg.Pipeline.PromptsFile)
			if err != nil {
				return nil, err
			}
			prompts = loaded
		}
		c, err := prompts.compile()
		if err != nil {
			return nil, err
		}
		p.prompts = c
	}
	return p, nil
}

// Stages returns the condense, draft and polish stages for topic in run order.
func (p *Pipeline) Stages(topic string) []Stage {
	models := p.cfg.Pipeline.Models
	limit := p.cfg.Pipeline.ResearchCharLimit
	return []Stage{
		{
			Name:  types.StageCondense,
			Model: models.Summarizer,
			Prompt: func(research string) (string, error) {
				return Truncate(research, limit), nil
			},
		},
		{
			Name:  types.StageDraft,
			Model: models.Writer,
			Prompt: func(summary string) (string, error) {
				return p.prompts.writerPrompt(models.Writer.Style, topic, summary)
			},
		},
		{
			Name:  types.StagePolish,
			Model: models.Editor,
			Prompt: func(draft string) (string, error) {
				return p.prompts.editorPrompt(models.Editor.Style, draft)
			},
			Post: StripEcho,
		},
	}
}

// Run performs one complete run. It aborts before any inference call when
// research is empty; otherwise it runs every stage and attempts exactly one
// publish, whatever the stages produced.
func (p *Pipeline) Run(ctx context.Context) types.RunReport {
	topic := p.cfg.Pipeline.Topic
	report := types.RunReport{
		RunID:     p.newID(),
		Topic:     topic,
		StartedAt: p.now(),
	}
	log := p.log.With(zap.String("run_id", report.RunID))

	report.Research = p.researcher.Research(ctx, topic, p.cfg.Search.MaxResults)
	if report.Research.Empty() {
		report.Aborted = true
		report.AbortReason = ErrResearchEmpty.Error()
		log.Warn("run aborted", zap.String("reason", report.AbortReason), zap.Error(report.Research.Err))
		report.FinishedAt = p.now()
		return report
	}

	artifact := report.Research.Text
	for _, stage := range p.Stages(topic) {
		result := stage.Run(ctx, p.invoker, artifact)
		report.Stages = append(report.Stages, result)
		if result.Failed() {
			log.Warn("stage degraded", zap.String("stage", result.Stage), zap.String("model", result.Model), zap.Error(result.Err))
		} else {
			log.Info("stage finished", zap.String("stage", result.Stage), zap.String("model", result.Model))
		}
		artifact = result.Output
	}

	report.Message = ComposeMessage(topic, artifact, p.cfg.Pipeline.Hashtags, p.cfg.Publish.ParseMode)
	report.Publish = p.publisher.Publish(ctx, p.cfg.Publish.ChannelID, report.Message)

	log.Info("run finished",
		zap.String("status", report.Status()),
		zap.Bool("degraded", report.Degraded()))
	report.FinishedAt = p.now()
	return report
}

// markdownEscaper escapes the characters legacy Telegram Markdown treats as
// entity delimiters.
var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// EscapeText escapes text for mode so it is delivered literally. ParseNone
// returns text unchanged.
func EscapeText(text string, mode types.ParseMode) string {
	switch mode {
	case types.ParseMarkdown:
		return markdownEscaper.Replace(text)
	case types.ParseHTML:
		return html.EscapeString(text)
	}
	return text
}

// ComposeMessage builds the final message: a header naming the topic, the
// polished body and the hashtag line, separated by blank lines. Text is
// escaped for mode so model output cannot break entity parsing.
func ComposeMessage(topic, body, hashtags string, mode types.ParseMode) string {
	header := EscapeText(topic, mode)
	switch mode {
	case types.ParseMarkdown:
		header = "*" + header + "*"
	case types.ParseHTML:
		header = "<b>" + header + "</b>"
	}
	body = EscapeText(strings.TrimSpace(body), mode)
	hashtags = EscapeText(hashtags, mode)

	parts := []string{header, body}
	if hashtags != "" {
		parts = append(parts, hashtags)
	}
	return strings.Join(parts, "\n\n")
}
