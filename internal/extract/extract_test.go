// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// --- fakes ---

type fakePages struct {
	pages []Page
	err   error
}

func (f fakePages) ReadPages(context.Context, []byte) ([]Page, error) {
	return f.pages, f.err
}

type fakeResolver struct {
	md  Metadata
	err error
}

func (f fakeResolver) Resolve(context.Context, string) (Metadata, error) {
	return f.md, f.err
}

type fakeFetcher map[string][]string

func (f fakeFetcher) Paragraphs(_ context.Context, url string) ([]string, error) {
	p, ok := f[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return p, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pdfBytes is enough of a PDF header for content sniffing.
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

func testHTTPConfig() types.HTTPConfig {
	return types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "research-podcast-test/0.1", MaxRetries: 1}
}

// --- Extract ---

func TestExtractPDFJoinsPagesAndSkipsFailures(t *testing.T) {
	pages := fakePages{pages: []Page{
		{Number: 1, Text: "first page"},
		{Number: 2, Err: ErrInvalidEncoding},
		{Number: 3, Text: "   "},
		{Number: 4, Text: "last page"},
	}}
	e := New(pages, fakeResolver{}, fakeFetcher{}, discardLogger())

	doc := e.Extract(context.Background(), types.NewPDFInput("My Paper (v2).pdf", pdfBytes))

	require.NoError(t, doc.Err)
	assert.Equal(t, "first page\nlast page", doc.RawText)
	assert.Equal(t, "My Paper (v2).pdf", doc.SourceID)
	assert.Equal(t, "My_Paper__v2_", doc.NameStem)
}

func TestExtractPDFFailures(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		pages   fakePages
		wantErr error
	}{
		{"not a pdf", []byte("hello, plain text"), fakePages{}, ErrNotPDF},
		{"no usable pages", pdfBytes, fakePages{pages: []Page{{Number: 1, Err: ErrInvalidEncoding}}}, ErrNoText},
		{"reader error", pdfBytes, fakePages{err: errors.New("pdftotext crashed")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.pages, fakeResolver{}, fakeFetcher{}, discardLogger())
			doc := e.Extract(context.Background(), types.NewPDFInput("x.pdf", tt.data))

			require.Error(t, doc.Err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, doc.Err, tt.wantErr)
			}
			assert.Equal(t, Sentinel, doc.RawText)
			assert.Equal(t, "x", doc.NameStem)
		})
	}
}

func TestExtractDOI(t *testing.T) {
	e := New(fakePages{}, fakeResolver{md: Metadata{Title: "T", Authors: "A", Journal: "J", Abstract: "Ab"}}, fakeFetcher{}, discardLogger())

	doc := e.Extract(context.Background(), types.NewDOIInput("10.1000/xyz.1"))

	require.NoError(t, doc.Err)
	assert.Equal(t, "Title: T\nAuthors: A\nJournal: J\nAbstract: Ab", doc.RawText)
	assert.Equal(t, "10_1000_xyz_1", doc.NameStem)
}

func TestExtractDOIResolverFailureUsesSentinel(t *testing.T) {
	e := New(fakePages{}, fakeResolver{err: errors.New("CrossRef API returned HTTP 404")}, fakeFetcher{}, discardLogger())

	doc := e.Extract(context.Background(), types.NewDOIInput("10.1000/missing"))

	assert.Error(t, doc.Err)
	assert.Equal(t, Sentinel, doc.RawText)
	assert.Equal(t, "10.1000/missing", doc.SourceID)
}

func TestExtractURL(t *testing.T) {
	fetcher := fakeFetcher{
		"https://ok.example/a": {"one", "", "two"},
		"https://empty.example": {" "},
	}
	e := New(fakePages{}, fakeResolver{}, fetcher, discardLogger())

	doc := e.Extract(context.Background(), types.NewURLInput("https://ok.example/a"))
	require.NoError(t, doc.Err)
	assert.Equal(t, "one\ntwo", doc.RawText)

	doc = e.Extract(context.Background(), types.NewURLInput("https://empty.example"))
	assert.ErrorIs(t, doc.Err, ErrNoParagraphs)
	assert.Equal(t, Sentinel, doc.RawText)

	doc = e.Extract(context.Background(), types.NewURLInput("https://down.example"))
	assert.Error(t, doc.Err)
	assert.Equal(t, Sentinel, doc.RawText)
}

func TestExtractDetectsLanguage(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog while the researchers measure how quickly it runs across the field."
	e := New(fakePages{}, fakeResolver{}, fakeFetcher{"https://en.example": {text}}, discardLogger())

	doc := e.Extract(context.Background(), types.NewURLInput("https://en.example"))

	assert.Equal(t, "en", doc.Language)
}

func TestFormatMetadataKeepsEmptyKeys(t *testing.T) {
	assert.Equal(t, "Title: T\nAuthors: \nJournal: \nAbstract: ", FormatMetadata(Metadata{Title: "T"}))
}

// --- CrossRefResolver ---

func TestCrossRefResolver(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/works/10.1000/xyz":
			assert.Equal(t, "research-podcast-test/0.1", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"message":{
				"title":["Deep Nets"],
				"container-title":["Journal of Tests"],
				"author":[{"given":"Ada","family":"Lovelace"},{"family":"Turing"},{}],
				"abstract":"<jats:p>We study <jats:italic>deep</jats:italic>\n nets.</jats:p>"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	orig := crossrefAPIBase
	crossrefAPIBase = ts.URL + "/works/"
	defer func() { crossrefAPIBase = orig }()

	r := NewCrossRefResolver(ts.Client(), testHTTPConfig())

	md, err := r.Resolve(context.Background(), "doi:10.1000/xyz")
	require.NoError(t, err)
	assert.Equal(t, Metadata{
		Title:    "Deep Nets",
		Authors:  "Ada Lovelace, Turing",
		Journal:  "Journal of Tests",
		Abstract: "We study deep nets.",
	}, md)

	_, err = r.Resolve(context.Background(), "10.1000/unknown")
	assert.EqualError(t, err, "CrossRef API returned HTTP 404")
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain   text", "plain text"},
		{"<jats:p>Hello</jats:p><jats:p>world</jats:p>", "Hello world"},
		{"a &amp; b", "a & b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripMarkup(tt.in), "input %q", tt.in)
	}
}

// --- HTMLFetcher ---

func TestHTMLFetcherParagraphs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusGone)
			return
		}
		io.WriteString(w, `<html><head><title>x</title></head><body>
			<h1>Heading</h1>
			<p>First <b>para</b>.</p>
			<div><p>Second para.<script>var x;</script></p></div>
			<span>not a paragraph</span>
			<p>Third.</p>
		</body></html>`)
	}))
	defer ts.Close()

	f := NewHTMLFetcher(ts.Client(), testHTTPConfig())

	paras, err := f.Paragraphs(context.Background(), ts.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, []string{"First para.", "Second para.", "Third."}, paras)

	_, err = f.Paragraphs(context.Background(), ts.URL+"/gone")
	assert.Error(t, err)
}
