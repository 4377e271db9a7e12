// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/research-podcast/internal/container"
)

const pdftotextBin = "pdftotext"

// pdftotextArgs reads the PDF from stdin and writes UTF-8 text to stdout.
// Pages are separated by form feeds.
var pdftotextArgs = []string{"-enc", "UTF-8", "-", "-"}

// ErrInvalidEncoding marks a page whose text is not valid UTF-8.
var ErrInvalidEncoding = errors.New("page text is not valid UTF-8")

// runFunc runs pdftotext with the given arguments.
type runFunc func(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error

// Pdftotext reads PDF pages with poppler's pdftotext, either from the host
// PATH or from a container image.
type Pdftotext struct {
	run runFunc
}

// NewHostPdftotext runs the pdftotext binary found on PATH.
func NewHostPdftotext() *Pdftotext {
	return &Pdftotext{
		run: func(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
			return container.RunHost(ctx, pdftotextBin, args, stdin, stdout)
		},
	}
}

// NewContainerPdftotext runs pdftotext inside image using rt. It verifies
// that the image exists locally before returning.
func NewContainerPdftotext(rt container.Runtime, image string) (*Pdftotext, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("pdftotext image not available in %s: %w", rt.Name(), err)
	}
	return &Pdftotext{
		run: func(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
			return rt.Run(ctx, image, append([]string{pdftotextBin}, args...), stdin, stdout)
		},
	}, nil
}

// ReadPages pipes pdf through pdftotext and splits the output into pages.
func (p *Pdftotext) ReadPages(ctx context.Context, pdf []byte) ([]Page, error) {
	var out bytes.Buffer
	if err := p.run(ctx, pdftotextArgs, bytes.NewReader(pdf), &out); err != nil {
		return nil, fmt.Errorf("running pdftotext: %w", err)
	}
	return splitPages(out.Bytes()), nil
}

// splitPages splits pdftotext output on form feeds. The trailing feed after
// the last page does not produce an extra page.
func splitPages(out []byte) []Page {
	raw := bytes.Split(out, []byte{'\f'})
	if n := len(raw); n > 0 && len(bytes.TrimSpace(raw[n-1])) == 0 {
		raw = raw[:n-1]
	}

	pages := make([]Page, 0, len(raw))
	for i, b := range raw {
		page := Page{Number: i + 1}
		if !utf8.Valid(b) {
			page.Err = ErrInvalidEncoding
		} else {
			page.Text = strings.TrimSpace(string(b))
		}
		pages = append(pages, page)
	}
	return pages
}
