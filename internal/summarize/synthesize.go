// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"strings"
)

// Synthesizer combines per-paper summaries into one narrative by running
// the summarization procedure over their concatenation.
type Synthesizer struct {
	summarizer *Summarizer
}

// NewSynthesizer creates a Synthesizer that reuses s.
func NewSynthesizer(s *Summarizer) *Synthesizer {
	return &Synthesizer{summarizer: s}
}

// Synthesize joins summaries with newlines in order and summarizes the
// result. An empty input returns Sentinel and ErrNoSummaries without
// calling the model.
func (y *Synthesizer) Synthesize(ctx context.Context, summaries []string) (string, error) {
	if len(summaries) == 0 {
		return Sentinel, ErrNoSummaries
	}
	return y.summarizer.Summarize(ctx, strings.Join(summaries, "\n"))
}
