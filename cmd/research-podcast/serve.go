// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-podcast/internal/retention"
	"github.com/pdiddy/research-podcast/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the pipeline over HTTP: POST /process accepts multipart
uploads, GET /audio/{filename} streams results, /files manages generated
audio, and /batches reads the batch history. When retention.schedule is set
audio older than retention.max_age is swept on that cron schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "listen address")
	serveCmd.Flags().String("retention-schedule", "", "cron schedule for sweeping old audio (e.g. @hourly)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("retention.schedule", serveCmd.Flags().Lookup("retention-schedule"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	janitor, err := retention.New(a.store, cfg.Retention, logger)
	if err != nil {
		return err
	}
	if janitor != nil {
		janitor.Start()
		defer janitor.Stop()
	}

	var history server.History
	if a.catalog != nil {
		history = a.catalog
	}
	server.Version = version
	return server.New(a.orchestrator, a.store, history, cfg.Server, logger).Serve(ctx)
}
