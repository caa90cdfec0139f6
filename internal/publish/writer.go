// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/newsdesk/pkg/types"
)

// Writer prints messages instead of delivering them. It backs dry runs.
type Writer struct {
	W io.Writer
}

// Publish writes a short banner naming channelID followed by text.
func (w Writer) Publish(_ context.Context, channelID, text string) types.PublishOutcome {
	if _, err := fmt.Fprintf(w.W, "--- %s (dry run) ---\n%s\n", channelID, text); err != nil {
		return types.PublishOutcome{Status: types.PublishFailed, Err: err}
	}
	return types.PublishOutcome{Status: types.PublishSkipped}
}
