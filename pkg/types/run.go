// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Reply is the normalized result of one inference call. Text is always
// usable as stage input: the extracted answer on success, a placeholder
// when Err is set.
type Reply struct {
	// Model is the backend identifier the call was sent to.
	Model string `json:"model" yaml:"model"`

	// Text is the extracted answer, the stringified body for unexpected
	// shapes, or a placeholder on failure.
	Text string `json:"text" yaml:"text"`

	// Err is nil when the backend answered with a usable body.
	Err error `json:"-" yaml:"-"`
}

// OK reports whether the call succeeded.
func (r Reply) OK() bool { return r.Err == nil }

// Stage names used in run reports and logs.
const (
	StageCondense = "condense"
	StageDraft    = "draft"
	StagePolish   = "polish"
)

// StageResult records one pipeline stage: its input prompt and the artifact
// handed to the next stage.
type StageResult struct {
	Stage  string `json:"stage" yaml:"stage"`
	Model  string `json:"model" yaml:"model"`
	Prompt string `json:"prompt" yaml:"prompt"`
	Output string `json:"output" yaml:"output"`
	Err    error  `json:"-" yaml:"-"`
}

// Failed reports whether the stage output is a placeholder.
func (s StageResult) Failed() bool { return s.Err != nil }

// PublishStatus describes what happened at the publish step.
type PublishStatus string

const (
	PublishPublished PublishStatus = "published"
	PublishSkipped   PublishStatus = "skipped"
	PublishFailed    PublishStatus = "failed"
)

// PublishOutcome is the result of handing a message to the channel.
type PublishOutcome struct {
	Status    PublishStatus `json:"status" yaml:"status"`
	MessageID int           `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	Err       error         `json:"-" yaml:"-"`
}

// RunReport summarizes one pipeline run from research through publish.
type RunReport struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Topic      string    `json:"topic" yaml:"topic"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Research Research      `json:"research" yaml:"research"`
	Stages   []StageResult `json:"stages" yaml:"stages"`

	// Message is the composed final message; empty when the run aborted.
	Message string `json:"message" yaml:"message"`

	// Publish is the zero value when the run aborted before publishing.
	Publish PublishOutcome `json:"publish" yaml:"publish"`

	Aborted     bool   `json:"aborted" yaml:"aborted"`
	AbortReason string `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
}

// Degraded reports whether any stage fell back to a placeholder.
func (r RunReport) Degraded() bool {
	for _, s := range r.Stages {
		if s.Failed() {
			return true
		}
	}
	return false
}

// Status returns a one-word summary of the run for logs and the archive.
func (r RunReport) Status() string {
	if r.Aborted {
		return "aborted"
	}
	return string(r.Publish.Status)
}
