// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences extraction, summarization, classification,
// synthesis, and audio rendering over a batch of papers and assembles the
// citation manifest.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-podcast/internal/classify"
	"github.com/pdiddy/research-podcast/internal/extract"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// SynthesisStem names the synthesis audio artifact.
const SynthesisStem = "final_synthesis"

var unsafeStemChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Extractor turns one input into text.
type Extractor interface {
	Extract(ctx context.Context, item types.InputItem) types.ExtractedDocument
}

// Summarizer summarizes one document. On failure it returns a usable
// sentinel text together with the error.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Synthesizer combines summaries into one narrative.
type Synthesizer interface {
	Synthesize(ctx context.Context, summaries []string) (string, error)
}

// Renderer writes text as audio under name and returns the file name.
type Renderer interface {
	Render(ctx context.Context, text, name string) (string, error)
}

// Recorder keeps completed batches.
type Recorder interface {
	Record(ctx context.Context, rec types.BatchRecord) error
}

// Deps are the collaborators of an Orchestrator. Hook and Recorder are
// optional.
type Deps struct {
	Extractor   Extractor
	Summarizer  Summarizer
	Synthesizer Synthesizer
	Renderer    Renderer
	Hook        StageHook
	Recorder    Recorder
}

// Batch is one submission: the items in submission order and the candidate
// topics. An empty ID is replaced by a new UUID.
type Batch struct {
	ID     string
	Items  []types.InputItem
	Topics []string
}

// Orchestrator runs batches through the stage machine.
type Orchestrator struct {
	deps Deps
	cfg  types.PipelineConfig
	log  *slog.Logger
	now  func() time.Time
}

// New creates an Orchestrator. Concurrency below 1 is treated as 1.
func New(deps Deps, cfg types.PipelineConfig, log *slog.Logger) *Orchestrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Orchestrator{deps: deps, cfg: cfg, log: log, now: time.Now}
}

// synthesisStem returns the synthesis artifact name for a batch. With
// per-batch naming the batch ID is appended so concurrent batches sharing
// an output directory never overwrite each other's synthesis.
func (o *Orchestrator) synthesisStem(batchID string) string {
	if !o.cfg.PerBatchSynthesis {
		return SynthesisStem
	}
	return SynthesisStem + "_" + unsafeStemChars.ReplaceAllString(batchID, "_")
}

// run carries the state of one batch between stages.
type run struct {
	batch     Batch
	log       *slog.Logger
	synthStem string
	docs      []types.ExtractedDocument
	papers    []types.PaperSummary
	synthesis types.SynthesisResult
}

// Run processes a batch and returns its response. Only an empty batch,
// the batch deadline, or caller cancellation fail the run; per-item
// failures are recorded on the citations.
func (o *Orchestrator) Run(ctx context.Context, b Batch) (*types.BatchResponse, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	started := o.now()
	r := &run{batch: b, log: o.log.With("batch", b.ID), synthStem: o.synthesisStem(b.ID)}

	o.enter(r, StageCollecting)
	if len(b.Items) == 0 {
		return nil, ErrEmptyBatch
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	steps := []struct {
		stage Stage
		fn    func(context.Context, *run) error
	}{
		{StageExtracting, o.extract},
		{StageSummarizing, o.summarize},
		{StageClassifying, o.classify},
		{StageRendering, o.render},
		{StageSynthesizing, o.synthesize},
		{StageSynthesizingAudio, o.renderSynthesis},
	}
	for _, step := range steps {
		o.enter(r, step.stage)
		if err := step.fn(ctx, r); err != nil {
			return nil, err
		}
		if err := batchErr(ctx); err != nil {
			r.log.Error("batch aborted", "stage", step.stage.String(), "err", err)
			return nil, err
		}
	}

	o.enter(r, StageDone)
	resp := r.response()
	o.record(ctx, r, resp, started)
	return resp, nil
}

func (o *Orchestrator) enter(r *run, s Stage) {
	r.log.Debug("stage", "stage", s.String())
	if o.deps.Hook != nil {
		o.deps.Hook(r.batch.ID, s)
	}
}

// batchErr maps a finished context to the batch-level error.
func batchErr(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return err
	}
}

// forEach runs fn for every item index with at most Concurrency in flight.
// Results are written by fn into index slots, so completion order does not
// matter.
func (o *Orchestrator) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for i := range n {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) extract(ctx context.Context, r *run) error {
	items := r.batch.Items
	r.docs = make([]types.ExtractedDocument, len(items))
	r.papers = make([]types.PaperSummary, len(items))

	o.forEach(ctx, len(items), func(ctx context.Context, i int) {
		r.docs[i] = o.deps.Extractor.Extract(ctx, items[i])
	})

	// Stems are claimed in submission order so names are deterministic.
	stems := extract.NewStemSet(r.synthStem)
	for i := range r.docs {
		doc := &r.docs[i]
		if doc.SourceID == "" {
			// Item skipped because the batch deadline passed.
			doc.SourceID = items[i].SourceID()
			doc.NameStem = extract.Stem(items[i])
		}
		doc.NameStem = stems.Claim(doc.NameStem)

		r.papers[i].SourceID = doc.SourceID
		if doc.Err != nil {
			r.fail(i, StageExtracting, doc.Err)
		}
	}
	return nil
}

func (o *Orchestrator) summarize(ctx context.Context, r *run) error {
	o.forEach(ctx, len(r.docs), func(ctx context.Context, i int) {
		text, err := o.deps.Summarizer.Summarize(ctx, r.docs[i].RawText)
		r.papers[i].SummaryText = text
		// A failed extraction always ends in the sentinel summary; only
		// report summarization failures of real text.
		if err != nil && r.docs[i].Err == nil {
			r.fail(i, StageSummarizing, err)
		}
	})
	return nil
}

func (o *Orchestrator) classify(_ context.Context, r *run) error {
	c, err := classify.New(r.batch.Topics)
	if err != nil {
		r.log.Warn("topic matcher unavailable", "err", err)
	}
	for i := range r.papers {
		if c == nil {
			r.papers[i].Topic = classify.Unspecified
			continue
		}
		r.papers[i].Topic = c.Classify(r.papers[i].SummaryText)
	}
	return nil
}

func (o *Orchestrator) render(ctx context.Context, r *run) error {
	o.forEach(ctx, len(r.papers), func(ctx context.Context, i int) {
		name, err := o.deps.Renderer.Render(ctx, r.papers[i].SummaryText, r.docs[i].NameStem)
		if err != nil {
			r.fail(i, StageRendering, err)
			return
		}
		r.papers[i].AudioFilename = name
	})
	return nil
}

func (o *Orchestrator) synthesize(ctx context.Context, r *run) error {
	summaries := lo.Map(r.papers, func(p types.PaperSummary, _ int) string { return p.SummaryText })
	text, err := o.deps.Synthesizer.Synthesize(ctx, summaries)
	if err != nil {
		r.log.Warn("synthesis failed", "stage", StageSynthesizing.String(), "err", err)
	}
	r.synthesis.Text = text
	return nil
}

func (o *Orchestrator) renderSynthesis(ctx context.Context, r *run) error {
	name, err := o.deps.Renderer.Render(ctx, r.synthesis.Text, r.synthStem)
	if err != nil {
		r.log.Warn("synthesis audio failed", "stage", StageSynthesizingAudio.String(), "err", err)
		return nil
	}
	r.synthesis.AudioFilename = &name
	return nil
}

// fail records a recovered failure for item i. Each index is owned by one
// goroutine per stage, so no locking is needed.
func (r *run) fail(i int, stage Stage, err error) {
	r.papers[i].Failures = append(r.papers[i].Failures, types.ItemFailure{
		Stage:   stage.String(),
		Message: err.Error(),
	})
	r.log.Warn("item failed", "source", r.papers[i].SourceID, "stage", stage.String(), "err", err)
}

func (r *run) response() *types.BatchResponse {
	citations := lo.Map(r.papers, func(p types.PaperSummary, _ int) types.Citation {
		c := types.Citation{Source: p.SourceID, Topic: p.Topic}
		if p.AudioFilename != "" {
			name := p.AudioFilename
			c.Audio = &name
		}
		if len(p.Failures) > 0 {
			c.Errors = lo.Map(p.Failures, func(f types.ItemFailure, _ int) string {
				return fmt.Sprintf("%s: %s", f.Stage, f.Message)
			})
		}
		return c
	})
	return &types.BatchResponse{
		BatchID:   r.batch.ID,
		Synthesis: r.synthesis,
		Citations: citations,
	}
}

func (o *Orchestrator) record(ctx context.Context, r *run, resp *types.BatchResponse, started time.Time) {
	if o.deps.Recorder == nil {
		return
	}
	failures := lo.CountBy(resp.Citations, func(c types.Citation) bool { return len(c.Errors) > 0 })
	rec := types.BatchRecord{
		ID:        resp.BatchID,
		Topics:    r.batch.Topics,
		Items:     len(resp.Citations),
		Failures:  failures,
		StartedAt: started,
		Duration:  o.now().Sub(started),
		Response:  resp,
	}
	if err := o.deps.Recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		r.log.Warn("recording batch failed", "err", err)
	}
}
