// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func fakeRun(out string, err error) runFunc {
	return func(_ context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
		if err != nil {
			return err
		}
		io.Copy(io.Discard, stdin)
		_, werr := io.WriteString(stdout, out)
		return werr
	}
}

func TestPdftotextReadPages(t *testing.T) {
	p := &Pdftotext{run: fakeRun("page one\n\fpage two\n\f\xff\xfe bad\f\f", nil)}

	pages, err := p.ReadPages(context.Background(), pdfBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 4 {
		t.Fatalf("got %d pages, want 4", len(pages))
	}
	if pages[0] != (Page{Number: 1, Text: "page one"}) {
		t.Errorf("page 1 = %+v", pages[0])
	}
	if pages[1] != (Page{Number: 2, Text: "page two"}) {
		t.Errorf("page 2 = %+v", pages[1])
	}
	if !errors.Is(pages[2].Err, ErrInvalidEncoding) {
		t.Errorf("page 3 error = %v, want ErrInvalidEncoding", pages[2].Err)
	}
	if pages[3] != (Page{Number: 4}) {
		t.Errorf("page 4 = %+v, want empty", pages[3])
	}
}

func TestPdftotextRunFailure(t *testing.T) {
	p := &Pdftotext{run: fakeRun("", errors.New("exit status 1"))}

	_, err := p.ReadPages(context.Background(), pdfBytes)
	if err == nil || !strings.Contains(err.Error(), "running pdftotext") {
		t.Fatalf("expected pdftotext error, got %v", err)
	}
}

func TestSplitPagesEmptyOutput(t *testing.T) {
	if got := splitPages(nil); len(got) != 0 {
		t.Errorf("got %d pages, want none", len(got))
	}
}
