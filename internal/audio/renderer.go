// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audio renders text to MP3 artifacts through an external TTS
// service and manages the flat output directory that holds them.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// Language is the fixed TTS language.
const Language = "en"

// ErrEmptyText reports a render request with nothing to say.
var ErrEmptyText = errors.New("no text to render")

// Speaker converts text to MP3 audio.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) ([]byte, error)
}

// RenderError reports a failed render for one destination name.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer writes spoken text into a Store.
type Renderer struct {
	speaker Speaker
	store   *Store
	cfg     types.AudioConfig
	log     *slog.Logger
}

// NewRenderer creates a Renderer.
func NewRenderer(speaker Speaker, store *Store, cfg types.AudioConfig, log *slog.Logger) *Renderer {
	return &Renderer{speaker: speaker, store: store, cfg: cfg, log: log}
}

// Store returns the artifact store the renderer writes to.
func (r *Renderer) Store() *Store { return r.store }

// Render speaks text in English and writes it to name + ".mp3", replacing
// any existing file. It returns the file name. Failures are *RenderError.
func (r *Renderer) Render(ctx context.Context, text, name string) (string, error) {
	filename := name + ".mp3"
	if err := validName(filename); err != nil {
		return "", &RenderError{Name: name, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &RenderError{Name: name, Err: ErrEmptyText}
	}

	if r.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.CallTimeout)
		defer cancel()
	}

	data, err := r.speaker.Speak(ctx, text, Language)
	if err != nil {
		return "", &RenderError{Name: name, Err: err}
	}
	if len(data) == 0 {
		return "", &RenderError{Name: name, Err: errors.New("TTS returned no audio")}
	}
	if err := r.store.Write(filename, data); err != nil {
		return "", &RenderError{Name: name, Err: err}
	}

	r.log.Debug("rendered audio", "file", filename, "bytes", len(data))
	return filename, nil
}
