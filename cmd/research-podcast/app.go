// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/research-podcast/internal/audio"
	"github.com/pdiddy/research-podcast/internal/catalog"
	"github.com/pdiddy/research-podcast/internal/container"
	"github.com/pdiddy/research-podcast/internal/extract"
	"github.com/pdiddy/research-podcast/internal/pipeline"
	"github.com/pdiddy/research-podcast/internal/summarize"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// app holds the wired pipeline and the resources it owns.
type app struct {
	cfg          types.Config
	store        *audio.Store
	catalog      *catalog.Catalog
	orchestrator *pipeline.Orchestrator
}

// newHTTPClients returns the client for source fetches, capped at the
// extraction timeout, and the client for model and TTS calls. The latter
// has no client timeout; each call is bounded by its own call_timeout.
func newHTTPClients(cfg types.Config) (fetch, service *http.Client) {
	return &http.Client{Timeout: cfg.Extraction.Timeout}, &http.Client{}
}

// newApp builds every collaborator from cfg. The caller must Close it.
func newApp(ctx context.Context, cfg types.Config, hook pipeline.StageHook) (*app, error) {
	client, service := newHTTPClients(cfg)

	pages, err := newPageReader(cfg.Extraction)
	if err != nil {
		return nil, err
	}
	extractor := extract.New(
		pages,
		extract.NewCrossRefResolver(client, cfg.Extraction.HTTPConfig),
		extract.NewHTMLFetcher(client, cfg.Extraction.HTTPConfig),
		logger,
	)

	model, err := newModel(ctx, cfg, service)
	if err != nil {
		return nil, err
	}
	summarizer := summarize.New(model, cfg.Summarizer, logger)

	store, err := audio.NewStore(cfg.Audio.OutputDir)
	if err != nil {
		return nil, err
	}
	renderer := audio.NewRenderer(audio.NewGoogleTTS(service, cfg.Extraction.HTTPConfig), store, cfg.Audio, logger)

	a := &app{cfg: cfg, store: store}
	deps := pipeline.Deps{
		Extractor:   extractor,
		Summarizer:  summarizer,
		Synthesizer: summarize.NewSynthesizer(summarizer),
		Renderer:    renderer,
		Hook:        hook,
	}
	if cfg.HistoryDB != "" {
		cat, err := catalog.Open(cfg.HistoryDB)
		if err != nil {
			return nil, err
		}
		a.catalog = cat
		deps.Recorder = cat
	}
	a.orchestrator = pipeline.New(deps, cfg.Pipeline, logger)
	return a, nil
}

func (a *app) Close() error {
	if a.catalog != nil {
		return a.catalog.Close()
	}
	return nil
}

func newPageReader(cfg types.ExtractionConfig) (extract.PageReader, error) {
	if cfg.PDFBackend != types.PDFContainer {
		return extract.NewHostPdftotext(), nil
	}
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	logger.Info("running pdftotext in container", "runtime", rt.Name(), "image", cfg.PDFImage)
	return extract.NewContainerPdftotext(rt, cfg.PDFImage)
}

func newModel(ctx context.Context, cfg types.Config, client *http.Client) (summarize.Model, error) {
	switch cfg.Summarizer.Backend {
	case types.BackendGemini:
		return summarize.NewGemini(ctx, cfg.Summarizer.APIKey, cfg.Summarizer.Model)
	case types.BackendHuggingFace:
		if cfg.Summarizer.APIKey == "" {
			return nil, errors.New("a Hugging Face API key is required: set HF_API_KEY or .secrets/huggingface-api-key")
		}
		return &summarize.HuggingFace{
			APIKey:     cfg.Summarizer.APIKey,
			Model:      cfg.Summarizer.Model,
			MaxRetries: cfg.Extraction.MaxRetries,
			Client:     client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown summarizer backend %q", cfg.Summarizer.Backend)
	}
}
