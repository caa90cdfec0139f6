// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/newsdesk/internal/inference"
	"github.com/pdiddy/newsdesk/pkg/types"
)

// Invoker sends a prompt to an inference backend. *inference.Adapter
// satisfies it; Invoke must always return usable text.
type Invoker interface {
	Invoke(ctx context.Context, spec types.ModelSpec, prompt string) types.Reply
}

// Stage is one named transformation step: it turns the previous stage's
// artifact into a prompt, sends it to Model and optionally cleans the answer.
type Stage struct {
	Name  string
	Model types.ModelSpec

	// Prompt builds the backend input from the previous artifact.
	Prompt func(input string) (string, error)

	// Post cleans the answer given the prompt that produced it. Nil keeps
	// the answer as is.
	Post func(answer, prompt string) string
}

// Run executes the stage. It never fails outright: when the prompt cannot
// be built or the backend call fails, Output holds a placeholder naming the
// model and Err records the cause, so the next stage always gets a string.
func (s Stage) Run(ctx context.Context, inv Invoker, input string) types.StageResult {
	result := types.StageResult{Stage: s.Name, Model: s.Model.ID}

	prompt, err := s.Prompt(input)
	if err != nil {
		result.Output = inference.ErrorPlaceholder(s.Model.ID)
		result.Err = fmt.Errorf("%s: %w", s.Name, err)
		return result
	}
	result.Prompt = prompt

	reply := inv.Invoke(ctx, s.Model, prompt)
	result.Output = reply.Text
	if reply.Err != nil {
		result.Err = fmt.Errorf("%s: %w", s.Name, reply.Err)
		return result
	}
	if s.Post != nil {
		result.Output = s.Post(result.Output, prompt)
	}
	return result
}

// Truncate returns the first limit characters of s. Characters are counted
// as runes so multi-byte text is never split mid-character. A non-positive
// limit returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// StripEcho removes prompt from the start of answer when a backend echoed
// its input before answering. Only an exact prefix is recognized; anything
// else is returned unchanged.
func StripEcho(answer, prompt string) string {
	if prompt == "" {
		return answer
	}
	return strings.TrimPrefix(answer, prompt)
}
