// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-podcast CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-podcast/internal/secrets"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is built from the configured level before any subcommand runs.
var logger *slog.Logger

// rootCmd is the base command for the research-podcast CLI.
var rootCmd = &cobra.Command{
	Use:   "research-podcast",
	Short: "Turn research papers into spoken summaries",
	Long: `research-podcast takes research papers as PDF files, DOIs, or web URLs,
summarizes each one, labels it with a topic, synthesizes a narrative across
all of them, and renders every summary to an MP3 file.

Run "process" for a one-off batch, "serve" for the HTTP API, or "watch" to
process PDFs dropped into an inbox directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logs.GetLoggerFromString(strings.ToUpper(viper.GetString("log_level")))

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-podcast.yaml or ~/.config/research-podcast/research-podcast.yaml)")
	rootCmd.PersistentFlags().String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().String("output-dir", "outputs", "directory holding generated audio")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("audio.output_dir", rootCmd.PersistentFlags().Lookup("output-dir"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("history_db", filepath.Join("outputs", "history.db"))
	viper.SetDefault("extraction.timeout", "60s")
	viper.SetDefault("extraction.user_agent", "research-podcast/"+version)
	viper.SetDefault("extraction.max_retries", 5)
	viper.SetDefault("extraction.pdf_backend", string(types.PDFHost))
	viper.SetDefault("summarizer.backend", string(types.BackendHuggingFace))
	viper.SetDefault("summarizer.max_retries", 2)
	viper.SetDefault("summarizer.call_timeout", "2m")
	viper.SetDefault("summarizer.max_chunk_chars", 3000)
	viper.SetDefault("audio.call_timeout", "2m")
	viper.SetDefault("pipeline.concurrency", 4)
	viper.SetDefault("pipeline.per_batch_synthesis", false)
	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("server.process_timeout", "5m")
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("retention.max_age", "168h")
}

func initConfig() {
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-podcast")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-podcast"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_PODCAST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig reads the typed configuration from viper and validates it.
func loadConfig() (types.Config, error) {
	cfg := types.Config{
		LogLevel:  viper.GetString("log_level"),
		HistoryDB: viper.GetString("history_db"),
		Extraction: types.ExtractionConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:    viper.GetDuration("extraction.timeout"),
				UserAgent:  viper.GetString("extraction.user_agent"),
				MaxRetries: viper.GetInt("extraction.max_retries"),
			},
			PDFBackend: types.PDFBackend(viper.GetString("extraction.pdf_backend")),
			PDFImage:   viper.GetString("extraction.pdf_image"),
		},
		Summarizer: types.SummarizerConfig{
			Backend:       types.SummarizerBackend(viper.GetString("summarizer.backend")),
			Model:         viper.GetString("summarizer.model"),
			APIKey:        viper.GetString("summarizer.api_key"),
			MaxRetries:    viper.GetInt("summarizer.max_retries"),
			CallTimeout:   viper.GetDuration("summarizer.call_timeout"),
			MaxChunkChars: viper.GetInt("summarizer.max_chunk_chars"),
		},
		Audio: types.AudioConfig{
			OutputDir:   viper.GetString("audio.output_dir"),
			CallTimeout: viper.GetDuration("audio.call_timeout"),
		},
		Pipeline: types.PipelineConfig{
			Concurrency:       viper.GetInt("pipeline.concurrency"),
			Timeout:           viper.GetDuration("pipeline.timeout"),
			PerBatchSynthesis: viper.GetBool("pipeline.per_batch_synthesis"),
		},
		Server: types.ServerConfig{
			Addr:           viper.GetString("server.addr"),
			ProcessTimeout: viper.GetDuration("server.process_timeout"),
			MaxUploadBytes: viper.GetInt64("server.max_upload_bytes"),
			AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		},
		Retention: types.RetentionConfig{
			Schedule: viper.GetString("retention.schedule"),
			MaxAge:   viper.GetDuration("retention.max_age"),
		},
	}

	switch cfg.Summarizer.Backend {
	case types.BackendGemini:
		cfg.Summarizer.APIKey = loadedSecrets.Resolve(cfg.Summarizer.APIKey, "GEMINI_API_KEY", secrets.GeminiKey)
	default:
		cfg.Summarizer.APIKey = loadedSecrets.Resolve(cfg.Summarizer.APIKey, "HF_API_KEY", secrets.HuggingFaceKey)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
