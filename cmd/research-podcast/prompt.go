// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-podcast/internal/extract"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// selection is what the interactive prompt collected.
type selection struct {
	items  []types.InputItem
	topics []string
	exit   bool
}

// promptInputs runs the input menu: pick one or more input methods, give
// optional topics, then list the inputs for each chosen method.
func promptInputs(in io.Reader, out io.Writer) (selection, error) {
	r := bufio.NewReader(in)
	var sel selection

	fmt.Fprintln(out, headingStyle.Render("=== RESEARCH PAPER PODCAST SYSTEM ==="))
	fmt.Fprintln(out, "Select input method(s):")
	fmt.Fprintln(out, "1. Upload multiple PDFs")
	fmt.Fprintln(out, "2. Enter multiple DOIs")
	fmt.Fprintln(out, "3. Enter paper URLs")
	fmt.Fprintln(out, "4. Exit")

	choices, err := ask(r, out, "\nEnter your choice(s) separated by commas (e.g., 1,2): ")
	if err != nil {
		return sel, err
	}
	chosen := make(map[string]bool)
	for _, c := range splitList(choices) {
		chosen[c] = true
	}
	if chosen["4"] {
		sel.exit = true
		return sel, nil
	}

	topics, err := ask(r, out, "(Optional) Enter topics for classification, separated by commas (or leave blank): ")
	if err != nil {
		return sel, err
	}
	sel.topics = splitList(topics)

	if chosen["1"] {
		paths, err := ask(r, out, "Enter PDF file paths separated by commas: ")
		if err != nil {
			return sel, err
		}
		for _, p := range splitList(paths) {
			item, err := extract.LoadInput(p)
			if err != nil || item.Kind != types.KindPDF {
				fmt.Fprintln(out, warnStyle.Render("Skipping "+p+": not a readable PDF file"))
				continue
			}
			sel.items = append(sel.items, item)
		}
	}
	if chosen["2"] {
		dois, err := ask(r, out, "Enter DOIs separated by commas: ")
		if err != nil {
			return sel, err
		}
		for _, d := range splitList(dois) {
			sel.items = append(sel.items, types.NewDOIInput(extract.NormalizeDOI(d)))
		}
	}
	if chosen["3"] {
		urls, err := ask(r, out, "Enter paper URLs separated by commas: ")
		if err != nil {
			return sel, err
		}
		for _, u := range splitList(urls) {
			sel.items = append(sel.items, types.NewURLInput(u))
		}
	}
	return sel, nil
}

// ask prints prompt and returns one trimmed line. EOF ends the line.
func ask(r *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
