// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pdiddy/research-podcast/internal/httputil"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// HTMLFetcher downloads a web page and returns the text of its <p> elements.
type HTMLFetcher struct {
	client *http.Client
	cfg    types.HTTPConfig
}

// NewHTMLFetcher creates a fetcher sharing client.
func NewHTMLFetcher(client *http.Client, cfg types.HTTPConfig) *HTMLFetcher {
	return &HTMLFetcher{client: client, cfg: cfg}
}

// Paragraphs fetches url and returns the text of every paragraph in
// document order. Non-2xx responses are errors.
func (f *HTMLFetcher) Paragraphs(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, url); err != nil {
		return nil, err
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return paragraphs(doc), nil
}

// paragraphs walks the tree in document order collecting <p> text. Nested
// paragraphs are not descended into separately.
func paragraphs(root *html.Node) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.P {
			out = append(out, nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
