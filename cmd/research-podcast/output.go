// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gookit/color"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	headingStyle = color.New(color.FgCyan, color.OpBold)
	okStyle      = color.New(color.FgGreen, color.OpBold)
	warnStyle    = color.New(color.FgYellow)
	labelStyle   = color.New(color.OpBold)
)

// writeResponse renders resp in the requested format. Audio names are
// shown as paths under outputDir in text mode.
func writeResponse(w io.Writer, resp *types.BatchResponse, format, outputDir string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	case formatText, "":
		writeText(w, resp, outputDir)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json, or yaml)", format)
	}
}

func writeText(w io.Writer, resp *types.BatchResponse, outputDir string) {
	fmt.Fprintln(w, okStyle.Render("PROCESS COMPLETE"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("=== SUMMARY ==="))
	fmt.Fprintln(w)
	if resp.Synthesis.Text != "" {
		fmt.Fprintln(w, resp.Synthesis.Text)
	} else {
		fmt.Fprintln(w, "No synthesis available.")
	}
	if resp.Synthesis.AudioFilename != nil {
		fmt.Fprintf(w, "\nAudio file saved at: %s\n", filepath.Join(outputDir, *resp.Synthesis.AudioFilename))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("=== CITATIONS ==="))
	fmt.Fprintln(w)
	for _, c := range resp.Citations {
		fmt.Fprintf(w, "- %s %s\n", labelStyle.Render("Source:"), c.Source)
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Topic:"), c.Topic)
		audioPath := warnStyle.Render("unavailable")
		if c.Audio != nil {
			audioPath = filepath.Join(outputDir, *c.Audio)
		}
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Audio:"), audioPath)
		for _, e := range c.Errors {
			fmt.Fprintf(w, "  %s\n", warnStyle.Render("! "+e))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Batch ID: %s\n", resp.BatchID)
}
