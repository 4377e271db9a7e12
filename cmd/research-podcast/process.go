// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-podcast/internal/extract"
	"github.com/pdiddy/research-podcast/internal/pipeline"
	"github.com/pdiddy/research-podcast/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process [pdf|doi|url ...]",
	Short: "Summarize papers and render them to audio",
	Long: `Process runs one batch through the pipeline. Each argument is a PDF path,
a DOI (bare or as a doi.org link), or a web URL; arguments are classified
in that order. With no arguments, or with --interactive, process prompts for
inputs the way a menu-driven session would.

Audio files are written to the output directory: one per paper, plus
final_synthesis.mp3 for the cross-paper narrative.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringSlice("topics", nil, "candidate topics for classification (comma-separated)")
	processCmd.Flags().String("format", formatText, "output format: text, json, or yaml")
	processCmd.Flags().BoolP("interactive", "i", false, "prompt for inputs")
	processCmd.Flags().Bool("progress", true, "print stage transitions to stderr")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	topics, _ := cmd.Flags().GetStringSlice("topics")
	format, _ := cmd.Flags().GetString("format")
	interactive, _ := cmd.Flags().GetBool("interactive")
	progress, _ := cmd.Flags().GetBool("progress")

	var items []types.InputItem
	if interactive || len(args) == 0 {
		sel, err := promptInputs(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if sel.exit {
			fmt.Fprintln(cmd.OutOrStdout(), "Exiting...")
			return nil
		}
		items = sel.items
		if len(sel.topics) > 0 {
			topics = sel.topics
		}
	} else {
		for _, arg := range args {
			item, err := extract.LoadInput(arg)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var hook pipeline.StageHook
	if progress && format == formatText {
		hook = func(_ string, stage pipeline.Stage) {
			fmt.Fprintf(os.Stderr, "%s\n", warnStyle.Render("-> "+stage.String()))
		}
	}

	a, err := newApp(ctx, cfg, hook)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.orchestrator.Run(ctx, pipeline.Batch{Items: items, Topics: topics})
	if err != nil {
		return err
	}
	return writeResponse(cmd.OutOrStdout(), resp, format, cfg.Audio.OutputDir)
}

// splitList splits a comma-separated answer into trimmed non-empty values.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
