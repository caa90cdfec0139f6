// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inference calls hosted text-inference backends and normalizes
// their differing request and response shapes into one call-and-get-text
// contract. Every failure is contained here: Invoke always returns a Reply
// whose Text is safe to hand to the next pipeline stage.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/newsdesk/internal/httputil"
	"github.com/pdiddy/newsdesk/pkg/types"
)

// DefaultEndpoint is the hosted inference API base URL.
const DefaultEndpoint = "https://api-inference.huggingface.co/models"

// DefaultTimeout bounds one inference call, cold model start included.
const DefaultTimeout = 180 * time.Second

// DefaultMaxNewTokens caps generation length when the config leaves it unset.
const DefaultMaxNewTokens = 1024

// NoResponsePlaceholder replaces the answer when the backend returned an
// empty list or a body that is not a list.
const NoResponsePlaceholder = "پاسخی از مدل دریافت نشد."

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// ErrNoResponse is set on a Reply whose body held no answer.
var ErrNoResponse = errors.New("no response received")

// ErrorPlaceholder is the stage output used when the backend for modelID
// could not be reached or answered with an error.
func ErrorPlaceholder(modelID string) string {
	return fmt.Sprintf("خطا در ارتباط با مدل %s", modelID)
}

// Adapter sends prompts to inference backends addressed by model identifier.
type Adapter struct {
	cfg    types.InferenceConfig
	client *http.Client
	log    *zap.Logger
}

// NewAdapter returns an Adapter for cfg. cfg.Timeout (DefaultTimeout when
// unset) bounds each Invoke as a whole, retries included. A nil client gets
// one with the same timeout; a nil logger discards output.
func NewAdapter(cfg types.InferenceConfig, client *http.Client, log *zap.Logger) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.MaxNewTokens <= 0 {
		cfg.MaxNewTokens = DefaultMaxNewTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = httputil.NewClient(cfg.Timeout)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{cfg: cfg, client: client, log: log}
}

// Invoke sends prompt to the backend named by spec and returns its answer.
// A single POST is made unless cfg.MaxRetries opts in to 429/503 retries.
// It never returns a nil-text Reply: on any network error, non-2xx status,
// timeout or undecodable body the Reply carries ErrorPlaceholder(spec.ID)
// and the cause in Err.
func (a *Adapter) Invoke(ctx context.Context, spec types.ModelSpec, prompt string) types.Reply {
	spec = Resolve(spec)
	log := a.log.With(zap.String("model", spec.ID), zap.String("kind", string(spec.Kind)))
	log.Info("calling model", zap.Int("prompt_chars", len([]rune(prompt))))

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := a.call(ctx, spec, prompt)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, ErrNoResponse):
		log.Warn("model returned no answer", zap.Duration("elapsed", elapsed))
		return types.Reply{Model: spec.ID, Text: NoResponsePlaceholder, Err: err}
	case err != nil:
		log.Warn("model call failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return types.Reply{Model: spec.ID, Text: ErrorPlaceholder(spec.ID), Err: err}
	}
	log.Info("model answered", zap.Duration("elapsed", elapsed), zap.Int("answer_chars", len([]rune(text))))
	return types.Reply{Model: spec.ID, Text: text}
}

// call performs the HTTP exchange and extracts the answer.
func (a *Adapter) call(ctx context.Context, spec types.ModelSpec, prompt string) (string, error) {
	if spec.ID == "" {
		return "", fmt.Errorf("empty model identifier")
	}
	r := newRequest(spec.Kind, a.cfg.MaxNewTokens)
	body, err := encode(r, prompt)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	url := strings.TrimRight(a.cfg.Endpoint, "/") + "/" + spec.ID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIToken)
	}
	if a.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, a.client, req, a.cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("inference backend returned HTTP %d: %s", resp.StatusCode, snippet(data))
	}

	return extract(data)
}

// answerFields lists the fields a backend answer may arrive in, in
// precedence order.
var answerFields = []string{"summary_text", "generated_text"}

// extract normalizes a response body. The body must be a JSON list; the
// first element's summary_text wins, then its generated_text. A list whose
// first element has neither is returned re-encoded as text.
func extract(data []byte) (string, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	list, ok := parsed.([]any)
	if !ok || len(list) == 0 {
		return "", ErrNoResponse
	}

	if first, ok := list[0].(map[string]any); ok {
		for _, f := range answerFields {
			if s, ok := first[f].(string); ok {
				return s, nil
			}
		}
	}

	raw, err := json.Marshal(parsed)
	if err != nil {
		return "", fmt.Errorf("re-encoding response: %w", err)
	}
	return string(raw), nil
}

// snippet shortens a response body for error messages.
func snippet(data []byte) string {
	r := []rune(strings.TrimSpace(string(data)))
	if len(r) > 200 {
		return string(r[:200]) + "..."
	}
	return string(r)
}
