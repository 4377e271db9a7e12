// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the podcast pipeline over HTTP: batch processing,
// audio download, artifact management, batch history, and health checks.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/research-podcast/internal/audio"
	"github.com/pdiddy/research-podcast/internal/pipeline"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// Version is reported by the info and health endpoints.
var Version = "dev"

const serviceName = "Research Paper Podcast System"

// Processor runs one batch.
type Processor interface {
	Run(ctx context.Context, b pipeline.Batch) (*types.BatchResponse, error)
}

// History serves recorded batches.
type History interface {
	List(ctx context.Context, limit int) ([]types.BatchRecord, error)
	Get(ctx context.Context, id string) (types.BatchRecord, error)
}

// Server is the HTTP surface. History is optional.
type Server struct {
	processor Processor
	store     *audio.Store
	history   History
	cfg       types.ServerConfig
	log       *slog.Logger
	validate  *validator.Validate
	started   time.Time

	httpServer *http.Server
}

// New creates a Server. history may be nil.
func New(processor Processor, store *audio.Store, history History, cfg types.ServerConfig, log *slog.Logger) *Server {
	s := &Server{
		processor: processor,
		store:     store,
		history:   history,
		cfg:       cfg,
		log:       log,
		validate:  validator.New(),
		started:   time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /audio/{filename}", s.handleAudio)
	mux.HandleFunc("GET /files", s.handleListFiles)
	mux.HandleFunc("DELETE /files/{filename}", s.handleDeleteFile)
	mux.HandleFunc("DELETE /files", s.handleDeleteAll)
	mux.HandleFunc("GET /batches", s.handleListBatches)
	mux.HandleFunc("GET /batches/{id}", s.handleGetBatch)
	return s.cors(s.logRequests(mux))
}

// Serve listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	s.log.Info("HTTP server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.log.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration_ms", time.Since(start).Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// cors allows the configured origins with any method and header.
func (s *Server) cors(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.AllowedOrigins))
	for _, o := range s.cfg.AllowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					h.Set("Access-Control-Allow-Headers", req)
				}
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
