// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize produces abstractive summaries by chunking text into
// paragraphs and passing each chunk to an external summarization model.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// Sentinel is returned when no summary could be produced.
const Sentinel = "Summary unavailable."

// MinChunkChars is the shortest paragraph worth summarizing; shorter
// fragments (headers, captions) are dropped.
const MinChunkChars = 100

var (
	// ErrNoContent means no paragraph survived chunking.
	ErrNoContent = errors.New("no paragraph long enough to summarize")

	// ErrAllChunksFailed means the model failed on every retained chunk.
	ErrAllChunksFailed = errors.New("summarization failed for every chunk")

	// ErrNoSummaries means synthesis was asked to combine nothing.
	ErrNoSummaries = errors.New("no summaries to synthesize")
)

// backoffBase is the initial retry delay. Tests override it.
var backoffBase = 1 * time.Second

// Model summarizes one chunk of text. Implementations have a bounded input
// window; chunks stay within MaxChunkChars plus at most a short tail.
type Model interface {
	Summarize(ctx context.Context, chunk string) (string, error)
}

// blankLine separates paragraphs.
var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// Summarizer chunks text and summarizes every retained chunk.
type Summarizer struct {
	model Model
	cfg   types.SummarizerConfig
	log   *slog.Logger
}

// New creates a Summarizer. Zero MaxChunkChars defaults to 3000.
func New(model Model, cfg types.SummarizerConfig, log *slog.Logger) *Summarizer {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = 3000
	}
	return &Summarizer{model: model, cfg: cfg, log: log}
}

// Summarize returns the chunk summaries joined by single spaces in input
// order. Chunks the model fails on are skipped. When nothing is retained or
// every chunk fails it returns Sentinel with ErrNoContent or
// ErrAllChunksFailed; the sentinel is always a usable value.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	chunks := Chunk(text, s.cfg.MaxChunkChars)
	if len(chunks) == 0 {
		return Sentinel, ErrNoContent
	}

	var parts []string
	var lastErr error
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return Sentinel, err
		}
		out, err := s.callWithRetry(ctx, chunk)
		if err != nil {
			s.log.Warn("skipping chunk", "chunk", i+1, "chunks", len(chunks), "err", err)
			lastErr = err
			continue
		}
		if out = strings.TrimSpace(out); out != "" {
			parts = append(parts, out)
		}
	}

	if len(parts) == 0 {
		if lastErr == nil {
			return Sentinel, ErrAllChunksFailed
		}
		return Sentinel, fmt.Errorf("%w: %w", ErrAllChunksFailed, lastErr)
	}
	return strings.Join(parts, " "), nil
}

// callWithRetry calls the model with a per-call timeout, retrying with
// exponential backoff. It stops early when ctx is done.
func (s *Summarizer) callWithRetry(ctx context.Context, chunk string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := s.call(ctx, chunk)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", s.cfg.MaxRetries, lastErr)
}

func (s *Summarizer) call(ctx context.Context, chunk string) (string, error) {
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}
	return s.model.Summarize(ctx, chunk)
}

// Chunk splits text into paragraphs on blank lines, splits paragraphs longer
// than maxChars at line and then word boundaries, and drops pieces shorter
// than MinChunkChars. Lengths are counted in characters, not bytes.
func Chunk(text string, maxChars int) []string {
	var chunks []string
	for _, para := range blankLine.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		for _, piece := range splitLong(strings.TrimSpace(para), maxChars) {
			if utf8.RuneCountInString(piece) >= MinChunkChars {
				chunks = append(chunks, piece)
			}
		}
	}
	return chunks
}

// splitLong packs lines into pieces of at most maxChars, falling back to
// words for lines that are themselves too long. A trailing piece shorter
// than MinChunkChars is appended to the one before it, so the last piece
// may exceed maxChars by less than MinChunkChars.
func splitLong(para string, maxChars int) []string {
	if utf8.RuneCountInString(para) <= maxChars {
		return []string{para}
	}

	var pieces []string
	var cur strings.Builder
	n := 0
	flush := func() {
		if n > 0 {
			pieces = append(pieces, cur.String())
			cur.Reset()
			n = 0
		}
	}
	add := func(unit, sep string) {
		size := utf8.RuneCountInString(unit)
		if n > 0 && n+len(sep)+size > maxChars {
			flush()
		}
		if n > 0 {
			cur.WriteString(sep)
			n += len(sep)
		}
		cur.WriteString(unit)
		n += size
	}

	for _, line := range strings.Split(para, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxChars {
			add(line, "\n")
			continue
		}
		for _, word := range strings.Fields(line) {
			add(word, " ")
		}
	}
	tail, short := cur.String(), n > 0 && n < MinChunkChars
	flush()

	if short && len(pieces) > 1 {
		last := len(pieces) - 1
		pieces[last-1] += "\n" + tail
		pieces = pieces[:last]
	}
	return pieces
}
