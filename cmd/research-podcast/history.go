// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-podcast/internal/catalog"
)

var historyCmd = &cobra.Command{
	Use:   "history [batch-id]",
	Short: "Show recorded batches",
	Long: `History lists recent batches from the history database, newest first.
Given a batch ID it prints that batch's full response. --source lists the
batches that included a given PDF name, DOI, or URL, and --export writes the
recent history as YAML.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of batches to list")
	historyCmd.Flags().String("source", "", "list batches that included this source")
	historyCmd.Flags().String("format", formatText, "output format for a single batch: text, json, or yaml")
	historyCmd.Flags().Bool("export", false, "write recent batches as YAML")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	source, _ := cmd.Flags().GetString("source")
	format, _ := cmd.Flags().GetString("format")
	export, _ := cmd.Flags().GetBool("export")

	path := viper.GetString("history_db")
	if path == "" {
		return errors.New("batch history is disabled: history_db is empty")
	}
	cat, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case export:
		return cat.ExportYAML(ctx, out, limit)

	case source != "":
		ids, err := cat.BatchesForSource(ctx, source)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil

	case len(args) == 1:
		rec, err := cat.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return writeResponse(out, rec.Response, format, viper.GetString("audio.output_dir"))
	}

	list, err := cat.List(ctx, limit)
	if err != nil {
		return err
	}
	table := newTable(out, []string{"ID", "Started", "Items", "Failures", "Duration", "Topics"})
	for _, r := range list {
		table.Append([]string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Items),
			strconv.Itoa(r.Failures),
			r.Duration.Round(100 * time.Millisecond).String(),
			strings.Join(r.Topics, ", "),
		})
	}
	table.Render()
	return nil
}
