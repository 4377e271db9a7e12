// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-podcast/internal/audio"
	"github.com/pdiddy/research-podcast/internal/extract"
	"github.com/pdiddy/research-podcast/internal/summarize"
	"github.com/pdiddy/research-podcast/pkg/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakes ---

// textExtractor returns a fixed text per source, with optional delays to
// shuffle completion order.
type textExtractor struct {
	texts  map[string]string
	delays map[string]time.Duration
}

func (f textExtractor) Extract(ctx context.Context, item types.InputItem) types.ExtractedDocument {
	if d := f.delays[item.SourceID()]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
		}
	}
	return types.ExtractedDocument{
		SourceID: item.SourceID(),
		RawText:  f.texts[item.SourceID()],
		NameStem: extract.Stem(item),
	}
}

// prefixSummarizer returns "S(" + text + ")".
type prefixSummarizer struct{}

func (prefixSummarizer) Summarize(_ context.Context, text string) (string, error) {
	return "S(" + text + ")", nil
}

type joinSynthesizer struct{}

func (joinSynthesizer) Synthesize(_ context.Context, summaries []string) (string, error) {
	return strings.Join(summaries, "|"), nil
}

// recordingRenderer remembers the text rendered for each name.
type recordingRenderer struct {
	mu    sync.Mutex
	texts map[string]string
	fail  map[string]bool
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{texts: map[string]string{}, fail: map[string]bool{}}
}

func (r *recordingRenderer) Render(_ context.Context, text, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[name] {
		return "", &audio.RenderError{Name: name, Err: errors.New("rate limited")}
	}
	r.texts[name] = text
	return name + ".mp3", nil
}

type memRecorder struct {
	recs []types.BatchRecord
	err  error
}

func (m *memRecorder) Record(_ context.Context, rec types.BatchRecord) error {
	m.recs = append(m.recs, rec)
	return m.err
}

func urls(n int) []types.InputItem {
	items := make([]types.InputItem, n)
	for i := range items {
		items[i] = types.NewURLInput(fmt.Sprintf("https://example.com/p%d", i))
	}
	return items
}

// --- tests ---

func TestRunCitationsFollowSubmissionOrder(t *testing.T) {
	items := urls(6)
	ex := textExtractor{texts: map[string]string{}, delays: map[string]time.Duration{}}
	for i, it := range items {
		ex.texts[it.Ref] = fmt.Sprintf("text %d", i)
		// Earlier items finish last.
		ex.delays[it.Ref] = time.Duration(len(items)-i) * 5 * time.Millisecond
	}
	rend := newRecordingRenderer()
	o := New(Deps{Extractor: ex, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: rend},
		types.PipelineConfig{Concurrency: 4}, discardLogger())

	resp, err := o.Run(context.Background(), Batch{Items: items})

	require.NoError(t, err)
	require.Len(t, resp.Citations, len(items))
	for i, c := range resp.Citations {
		assert.Equal(t, items[i].Ref, c.Source)
		require.NotNil(t, c.Audio)
	}
	assert.Equal(t, "S(text 0)|S(text 1)|S(text 2)|S(text 3)|S(text 4)|S(text 5)", resp.Synthesis.Text)
	require.NotNil(t, resp.Synthesis.AudioFilename)
	assert.Equal(t, "final_synthesis.mp3", *resp.Synthesis.AudioFilename)
	assert.NotEmpty(t, resp.BatchID)
}

func TestRunEmptyBatch(t *testing.T) {
	var stages []Stage
	o := New(Deps{Hook: func(_ string, s Stage) { stages = append(stages, s) }}, types.PipelineConfig{}, discardLogger())

	resp, err := o.Run(context.Background(), Batch{})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrEmptyBatch)
	assert.Equal(t, []Stage{StageCollecting}, stages)
}

func TestRunVisitsStagesInOrder(t *testing.T) {
	var stages []Stage
	o := New(Deps{
		Extractor:   textExtractor{texts: map[string]string{}},
		Summarizer:  prefixSummarizer{},
		Synthesizer: joinSynthesizer{},
		Renderer:    newRecordingRenderer(),
		Hook:        func(_ string, s Stage) { stages = append(stages, s) },
	}, types.PipelineConfig{}, discardLogger())

	_, err := o.Run(context.Background(), Batch{ID: "b1", Items: urls(2)})

	require.NoError(t, err)
	assert.Equal(t, []Stage{
		StageCollecting, StageExtracting, StageSummarizing, StageClassifying,
		StageRendering, StageSynthesizing, StageSynthesizingAudio, StageDone,
	}, stages)
}

func TestRunDisambiguatesStems(t *testing.T) {
	items := []types.InputItem{
		types.NewPDFInput("paper.pdf", nil),
		types.NewPDFInput("paper.pdf", nil),
		types.NewPDFInput("final_synthesis.pdf", nil),
	}
	rend := newRecordingRenderer()
	o := New(Deps{Extractor: textExtractor{}, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: rend},
		types.PipelineConfig{Concurrency: 3}, discardLogger())

	resp, err := o.Run(context.Background(), Batch{Items: items})

	require.NoError(t, err)
	got := []string{*resp.Citations[0].Audio, *resp.Citations[1].Audio, *resp.Citations[2].Audio}
	assert.Equal(t, []string{"paper.mp3", "paper_2.mp3", "final_synthesis_2.mp3"}, got)
	assert.Equal(t, "final_synthesis.mp3", *resp.Synthesis.AudioFilename)
}

func TestRunPerBatchSynthesisName(t *testing.T) {
	items := []types.InputItem{types.NewPDFInput("final_synthesis_b-1.pdf", nil)}
	o := New(Deps{Extractor: textExtractor{}, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: newRecordingRenderer()},
		types.PipelineConfig{PerBatchSynthesis: true}, discardLogger())

	a, err := o.Run(context.Background(), Batch{ID: "b-1", Items: items})
	require.NoError(t, err)
	b, err := o.Run(context.Background(), Batch{ID: "b/2", Items: items})
	require.NoError(t, err)

	assert.Equal(t, "final_synthesis_b-1.mp3", *a.Synthesis.AudioFilename)
	assert.Equal(t, "final_synthesis_b-1_2.mp3", *a.Citations[0].Audio)
	assert.Equal(t, "final_synthesis_b_2.mp3", *b.Synthesis.AudioFilename)
}

func TestRunRenderFailureIsRecorded(t *testing.T) {
	rend := newRecordingRenderer()
	rend.fail["example_com_p0"] = true
	o := New(Deps{Extractor: textExtractor{}, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: rend},
		types.PipelineConfig{}, discardLogger())

	resp, err := o.Run(context.Background(), Batch{Items: urls(2)})

	require.NoError(t, err)
	assert.Nil(t, resp.Citations[0].Audio)
	require.Len(t, resp.Citations[0].Errors, 1)
	assert.Contains(t, resp.Citations[0].Errors[0], "rendering: ")
	assert.NotNil(t, resp.Citations[1].Audio)
	assert.Empty(t, resp.Citations[1].Errors)
}

func TestRunSynthesisRenderFailureLeavesNullAudio(t *testing.T) {
	rend := newRecordingRenderer()
	rend.fail[SynthesisStem] = true
	o := New(Deps{Extractor: textExtractor{}, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: rend},
		types.PipelineConfig{}, discardLogger())

	resp, err := o.Run(context.Background(), Batch{Items: urls(1)})

	require.NoError(t, err)
	assert.Nil(t, resp.Synthesis.AudioFilename)
	assert.NotEmpty(t, resp.Synthesis.Text)
}

func TestRunTimeout(t *testing.T) {
	ex := textExtractor{delays: map[string]time.Duration{"https://example.com/p0": time.Second}}
	o := New(Deps{Extractor: ex, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: newRecordingRenderer()},
		types.PipelineConfig{Timeout: 20 * time.Millisecond}, discardLogger())

	resp, err := o.Run(context.Background(), Batch{Items: urls(1)})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := New(Deps{Extractor: textExtractor{}, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: newRecordingRenderer()},
		types.PipelineConfig{}, discardLogger())

	_, err := o.Run(ctx, Batch{Items: urls(1)})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRecordsBatch(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	o := New(Deps{Extractor: textExtractor{}, Summarizer: prefixSummarizer{}, Synthesizer: joinSynthesizer{}, Renderer: newRecordingRenderer(), Recorder: rec},
		types.PipelineConfig{}, discardLogger())

	resp, err := o.Run(context.Background(), Batch{ID: "fixed", Items: urls(2), Topics: []string{"x"}})

	require.NoError(t, err, "recorder failures are only logged")
	require.Len(t, rec.recs, 1)
	assert.Equal(t, "fixed", rec.recs[0].ID)
	assert.Equal(t, 2, rec.recs[0].Items)
	assert.Equal(t, []string{"x"}, rec.recs[0].Topics)
	assert.Same(t, resp, rec.recs[0].Response)
}

// --- end-to-end with the real extractor, summarizer and renderer ---

type stubResolver struct{ md extract.Metadata }

func (s stubResolver) Resolve(context.Context, string) (extract.Metadata, error) { return s.md, nil }

type stubPages struct{}

func (stubPages) ReadPages(context.Context, []byte) ([]extract.Page, error) { return nil, nil }

// flakyFetcher fails for the first URL and serves paragraphs for the rest.
type flakyFetcher struct{ fail string }

func (f flakyFetcher) Paragraphs(_ context.Context, url string) ([]string, error) {
	if url == f.fail {
		return nil, errors.New("connection reset by peer")
	}
	return []string{strings.Repeat("Real content about cells and biology. ", 4)}, nil
}

// echoModel returns each chunk unchanged.
type echoModel struct{}

func (echoModel) Summarize(_ context.Context, chunk string) (string, error) { return chunk, nil }

// spokenText is a Speaker that writes the text as the audio payload.
type spokenText struct{}

func (spokenText) Speak(_ context.Context, text, _ string) ([]byte, error) { return []byte(text), nil }

func newRealOrchestrator(t *testing.T, fetcher extract.ParagraphFetcher, resolver extract.MetadataResolver) (*Orchestrator, *audio.Store) {
	t.Helper()
	log := discardLogger()
	store, err := audio.NewStore(filepath.Join(t.TempDir(), "outputs"))
	require.NoError(t, err)

	s := summarize.New(echoModel{}, types.SummarizerConfig{MaxChunkChars: 3000}, log)
	return New(Deps{
		Extractor:   extract.New(stubPages{}, resolver, fetcher, log),
		Summarizer:  s,
		Synthesizer: summarize.NewSynthesizer(s),
		Renderer:    audio.NewRenderer(spokenText{}, store, types.AudioConfig{}, log),
	}, types.PipelineConfig{Concurrency: 2}, log), store
}

func TestRunEndToEndDOI(t *testing.T) {
	abstract := "Ab: this study examines bio signals in living tissue and reports how they change across many samples."
	resolver := stubResolver{md: extract.Metadata{Title: "T", Authors: "A", Journal: "J", Abstract: abstract}}
	o, store := newRealOrchestrator(t, flakyFetcher{}, resolver)

	resp, err := o.Run(context.Background(), Batch{
		Items:  []types.InputItem{types.NewDOIInput("10.1000/xyz")},
		Topics: []string{"bio"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Citations, 1)
	c := resp.Citations[0]
	assert.Equal(t, "10.1000/xyz", c.Source)
	assert.Equal(t, "bio", c.Topic)
	require.NotNil(t, c.Audio)
	assert.Equal(t, "10_1000_xyz.mp3", *c.Audio)
	assert.True(t, store.Exists(*c.Audio))

	summary := extract.FormatMetadata(resolver.md)
	assert.Equal(t, summary, resp.Synthesis.Text)
	require.NotNil(t, resp.Synthesis.AudioFilename)
	assert.True(t, store.Exists(*resp.Synthesis.AudioFilename))
}

func TestRunFailureIsolation(t *testing.T) {
	items := []types.InputItem{
		types.NewURLInput("https://down.example/a"),
		types.NewURLInput("https://up.example/b"),
	}
	o, store := newRealOrchestrator(t, flakyFetcher{fail: items[0].Ref}, stubResolver{})

	resp, err := o.Run(context.Background(), Batch{Items: items, Topics: []string{"biology"}})

	require.NoError(t, err)
	require.Len(t, resp.Citations, 2)

	first, second := resp.Citations[0], resp.Citations[1]
	assert.Equal(t, items[0].Ref, first.Source)
	assert.Equal(t, "Unspecified", first.Topic)
	require.NotEmpty(t, first.Errors)
	assert.Contains(t, first.Errors[0], "extracting: ")

	assert.Equal(t, items[1].Ref, second.Source)
	assert.Equal(t, "biology", second.Topic)
	assert.Empty(t, second.Errors)

	f, err := store.Open(*first.Audio)
	require.NoError(t, err)
	spoken, _ := io.ReadAll(f)
	f.Close()
	assert.Equal(t, summarize.Sentinel, string(spoken))

	f, err = store.Open(*second.Audio)
	require.NoError(t, err)
	spoken, _ = io.ReadAll(f)
	f.Close()
	assert.Contains(t, string(spoken), "Real content about cells")
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "synthesizing_audio", StageSynthesizingAudio.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
