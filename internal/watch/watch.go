// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch turns an inbox directory into a batch source: every PDF
// dropped into it is processed as a single-item batch and then moved to
// processed/ or failed/.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/research-podcast/internal/extract"
	"github.com/pdiddy/research-podcast/internal/pipeline"
	"github.com/pdiddy/research-podcast/pkg/types"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// settleDelay gives writers time to finish a file before it is read.
var settleDelay = 500 * time.Millisecond

// Handler processes one PDF path.
type Handler func(ctx context.Context, path string) error

// Processor runs one batch.
type Processor interface {
	Run(ctx context.Context, b pipeline.Batch) (*types.BatchResponse, error)
}

// Watcher monitors an inbox directory for new PDFs.
type Watcher struct {
	dir       string
	handler   Handler
	log       *slog.Logger
	fs        *fsnotify.Watcher
	semaphore chan struct{}
	wg        sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]bool
}

// New watches dir, creating it and its processed/ and failed/ folders when
// missing. maxConcurrent bounds parallel handlers (default 1).
func New(dir string, handler Handler, log *slog.Logger, maxConcurrent int) (*Watcher, error) {
	for _, d := range []string{dir, filepath.Join(dir, ProcessedDir), filepath.Join(dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", d, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Watcher{
		dir:       dir,
		handler:   handler,
		log:       log,
		fs:        fw,
		semaphore: make(chan struct{}, maxConcurrent),
		inflight:  make(map[string]bool),
	}, nil
}

// Start handles PDFs already in the inbox, then every PDF created in it,
// until ctx is done. It waits for running handlers before returning.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info("inbox watcher started", "dir", w.dir, "max_concurrent", cap(w.semaphore))
	defer w.wg.Wait()

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() && isPDF(e.Name()) {
			if err := w.dispatch(ctx, filepath.Join(w.dir, e.Name())); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("inbox watcher stopping")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isPDF(event.Name) {
				w.log.Debug("ignoring non-PDF file", "path", event.Name)
				continue
			}
			if err := w.dispatch(ctx, event.Name); err != nil {
				return err
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.log.Error("watcher error", "err", err)
		}
	}
}

// Close stops the underlying notifier.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// dispatch runs the handler for path once a concurrency slot is free.
func (w *Watcher) dispatch(ctx context.Context, path string) error {
	w.mu.Lock()
	if w.inflight[path] {
		w.mu.Unlock()
		return nil
	}
	w.inflight[path] = true
	w.mu.Unlock()

	select {
	case w.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.semaphore }()
		defer func() {
			w.mu.Lock()
			delete(w.inflight, path)
			w.mu.Unlock()
		}()

		select {
		case <-time.After(settleDelay):
		case <-ctx.Done():
			return
		}
		if _, err := os.Stat(path); err != nil {
			return
		}

		w.log.Info("new PDF detected", "path", path)
		dest := ProcessedDir
		if err := w.handler(ctx, path); err != nil {
			w.log.Error("failed to process PDF", "path", path, "err", err)
			dest = FailedDir
		}
		if err := os.Rename(path, filepath.Join(w.dir, dest, filepath.Base(path))); err != nil {
			w.log.Error("failed to move PDF", "path", path, "err", err)
		}
	}()
	return nil
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// BatchHandler runs each PDF through p as a single-item batch labelled
// against topics. done, when non-nil, receives every response.
func BatchHandler(p Processor, topics []string, log *slog.Logger, done func(path string, resp *types.BatchResponse)) Handler {
	return func(ctx context.Context, path string) error {
		item, err := extract.LoadInput(path)
		if err != nil {
			return err
		}
		resp, err := p.Run(ctx, pipeline.Batch{Items: []types.InputItem{item}, Topics: topics})
		if err != nil {
			return err
		}
		c := resp.Citations[0]
		if len(c.Errors) > 0 {
			return fmt.Errorf("%s: %s", c.Source, strings.Join(c.Errors, "; "))
		}
		log.Info("inbox PDF processed", "path", path, "batch_id", resp.BatchID, "topic", c.Topic)
		if done != nil {
			done(path, resp)
		}
		return nil
	}
}
