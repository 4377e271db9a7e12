// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by every collaborator that
// makes network requests.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-podcast/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SummarizerBackend selects the summarization model service.
type SummarizerBackend string

const (
	BackendHuggingFace SummarizerBackend = "huggingface"
	BackendGemini      SummarizerBackend = "gemini"
)

// SummarizerConfig holds settings for the summarization model.
type SummarizerConfig struct {
	Backend SummarizerBackend `json:"backend" yaml:"backend"`

	// Model is the model identifier (e.g. "sshleifer/distilbart-cnn-12-6").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the model service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retries per chunk (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// CallTimeout bounds a single model call.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// MaxChunkChars is the longest chunk sent to the model in one call.
	MaxChunkChars int `json:"max_chunk_chars" yaml:"max_chunk_chars"`
}

// PDFBackend selects how pdftotext is run.
type PDFBackend string

const (
	PDFHost      PDFBackend = "host"
	PDFContainer PDFBackend = "container"
)

// ExtractionConfig holds settings for text extraction.
type ExtractionConfig struct {
	HTTPConfig `yaml:",inline"`

	// PDFBackend runs pdftotext on the host or inside a container.
	PDFBackend PDFBackend `json:"pdf_backend" yaml:"pdf_backend"`

	// PDFImage is the container image providing pdftotext.
	PDFImage string `json:"pdf_image" yaml:"pdf_image"`
}

// AudioConfig holds settings for TTS rendering and artifact storage.
type AudioConfig struct {
	// OutputDir is the flat directory holding audio artifacts.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// CallTimeout bounds a single TTS render.
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`
}

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	// Concurrency bounds per-item fan-out; 1 processes items one at a time.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// Timeout bounds a whole batch.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// PerBatchSynthesis names the synthesis audio final_synthesis_<batch id>
	// instead of final_synthesis, for servers running batches concurrently.
	PerBatchSynthesis bool `json:"per_batch_synthesis" yaml:"per_batch_synthesis"`
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`

	// ProcessTimeout bounds a POST /process request (default 5m).
	ProcessTimeout time.Duration `json:"process_timeout" yaml:"process_timeout"`

	// MaxUploadBytes bounds the multipart body.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	// AllowedOrigins lists CORS origins.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// RetentionConfig controls the periodic artifact sweep.
type RetentionConfig struct {
	// Schedule is a cron spec (e.g. "@hourly"); empty disables the sweep.
	Schedule string `json:"schedule" yaml:"schedule"`

	// MaxAge is the age after which artifacts are removed.
	MaxAge time.Duration `json:"max_age" yaml:"max_age"`
}

// Config groups every setting of the podcast pipeline.
type Config struct {
	LogLevel   string           `json:"log_level" yaml:"log_level"`
	HistoryDB  string           `json:"history_db" yaml:"history_db"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Summarizer SummarizerConfig `json:"summarizer" yaml:"summarizer"`
	Audio      AudioConfig      `json:"audio" yaml:"audio"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Retention  RetentionConfig  `json:"retention" yaml:"retention"`
}

// Validate checks required settings and fills defaults for the optional ones.
func (c *Config) Validate() error {
	if c.Audio.OutputDir == "" {
		return fmt.Errorf("audio.output_dir is required")
	}
	switch c.Summarizer.Backend {
	case BackendHuggingFace, BackendGemini:
	case "":
		c.Summarizer.Backend = BackendHuggingFace
	default:
		return fmt.Errorf("summarizer.backend %q is not one of huggingface, gemini", c.Summarizer.Backend)
	}
	switch c.Extraction.PDFBackend {
	case PDFHost, PDFContainer:
	case "":
		c.Extraction.PDFBackend = PDFHost
	default:
		return fmt.Errorf("extraction.pdf_backend %q is not one of host, container", c.Extraction.PDFBackend)
	}

	if c.Summarizer.Model == "" {
		if c.Summarizer.Backend == BackendGemini {
			c.Summarizer.Model = "gemini-2.5-flash"
		} else {
			c.Summarizer.Model = "sshleifer/distilbart-cnn-12-6"
		}
	}
	if c.Summarizer.MaxRetries <= 0 {
		c.Summarizer.MaxRetries = 2
	}
	if c.Summarizer.MaxChunkChars <= 0 {
		c.Summarizer.MaxChunkChars = 3000
	}
	if c.Extraction.PDFImage == "" {
		c.Extraction.PDFImage = "minidocks/poppler:latest"
	}
	if c.Extraction.UserAgent == "" {
		c.Extraction.UserAgent = "research-podcast/0.1"
	}
	if c.Extraction.Timeout <= 0 {
		c.Extraction.Timeout = 60 * time.Second
	}
	if c.Pipeline.Concurrency <= 0 {
		c.Pipeline.Concurrency = 1
	}
	if c.Server.ProcessTimeout <= 0 {
		c.Server.ProcessTimeout = 5 * time.Minute
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 64 << 20
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	return nil
}
