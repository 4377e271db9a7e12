// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-podcast/internal/watch"
	"github.com/pdiddy/research-podcast/pkg/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process PDFs dropped into an inbox directory",
	Long: `Watch monitors an inbox directory and runs every PDF placed in it through
the pipeline as its own batch. Handled files move to inbox/processed/, and
files whose extraction or processing failed move to inbox/failed/.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("inbox", "inbox", "directory to watch for PDFs")
	watchCmd.Flags().StringSlice("topics", nil, "candidate topics for classification (comma-separated)")
	watchCmd.Flags().Int("max-concurrent", 2, "PDFs processed at the same time")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	inbox, _ := cmd.Flags().GetString("inbox")
	topics, _ := cmd.Flags().GetStringSlice("topics")
	maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")

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

	out := cmd.OutOrStdout()
	handler := watch.BatchHandler(a.orchestrator, topics, logger, func(path string, resp *types.BatchResponse) {
		fmt.Fprintf(out, "%s %s -> %s\n", okStyle.Render("done"), path, resp.Citations[0].Topic)
	})

	w, err := watch.New(inbox, handler, logger, maxConcurrent)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
