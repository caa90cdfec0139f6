// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package inference

import (
	"encoding/json"
	"strings"

	"github.com/pdiddy/newsdesk/pkg/types"
)

// request is one of the closed set of backend request shapes. Each variant
// owns its payload construction.
type request interface {
	payload(prompt string) any
}

// options carries the readiness flag; wait_for_model keeps the backend from
// answering 503 while a cold model loads.
type options struct {
	WaitForModel bool `json:"wait_for_model"`
}

// SummarizationRequest is the reduced payload accepted by summarization
// backends: inputs and the readiness flag, no generation parameters.
type SummarizationRequest struct{}

type summarizationPayload struct {
	Inputs  string  `json:"inputs"`
	Options options `json:"options"`
}

func (SummarizationRequest) payload(prompt string) any {
	return summarizationPayload{Inputs: prompt, Options: options{WaitForModel: true}}
}

// GenerativeRequest carries generation parameters in addition to the inputs.
type GenerativeRequest struct {
	MaxNewTokens int
}

type generativeParameters struct {
	ReturnFullText bool `json:"return_full_text"`
	MaxNewTokens   int  `json:"max_new_tokens"`
}

type generativePayload struct {
	Inputs     string               `json:"inputs"`
	Parameters generativeParameters `json:"parameters"`
}

func (g GenerativeRequest) payload(prompt string) any {
	return generativePayload{
		Inputs: prompt,
		Parameters: generativeParameters{
			ReturnFullText: false,
			MaxNewTokens:   g.MaxNewTokens,
		},
	}
}

// newRequest selects the request variant for a resolved model kind.
func newRequest(kind types.ModelKind, maxNewTokens int) request {
	if kind == types.KindSummarization {
		return SummarizationRequest{}
	}
	return GenerativeRequest{MaxNewTokens: maxNewTokens}
}

// encode marshals the payload of r for prompt.
func encode(r request, prompt string) ([]byte, error) {
	return json.Marshal(r.payload(prompt))
}

// summarizationMarkers identify well-known summarization model families.
var summarizationMarkers = []string{
	"bart-large-cnn",
	"bart-large-xsum",
	"distilbart",
	"pegasus",
	"summariz",
}

// Classify returns the model kind for an identifier that was configured
// without an explicit kind. Known summarization families map to
// KindSummarization; everything else is generative.
func Classify(modelID string) types.ModelKind {
	id := strings.ToLower(modelID)
	for _, m := range summarizationMarkers {
		if strings.Contains(id, m) {
			return types.KindSummarization
		}
	}
	return types.KindGenerative
}

// ClassifyStyle returns the prompt style for an identifier that was
// configured without one.
func ClassifyStyle(modelID string) types.PromptStyle {
	id := strings.ToLower(modelID)
	switch {
	case strings.Contains(id, "llama-3"), strings.Contains(id, "llama3"):
		return types.StyleLlama3
	case strings.Contains(id, "mistral"), strings.Contains(id, "mixtral"):
		return types.StyleInst
	default:
		return types.StylePlain
	}
}

// Resolve fills an empty Kind or Style from the model identifier. Explicit
// values are left alone.
func Resolve(spec types.ModelSpec) types.ModelSpec {
	if spec.Kind == "" {
		spec.Kind = Classify(spec.ID)
	}
	if spec.Style == "" {
		spec.Style = ClassifyStyle(spec.ID)
	}
	return spec
}
