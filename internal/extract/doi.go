// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/html"

	"github.com/pdiddy/research-podcast/internal/httputil"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// crossrefAPIBase is the CrossRef works endpoint. Declared as a var so tests
// can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	ContainerTitle []string         `json:"container-title"`
	Abstract       string           `json:"abstract"`
	Author         []crossrefAuthor `json:"author"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// CrossRefResolver resolves DOIs against the CrossRef works API.
type CrossRefResolver struct {
	client *http.Client
	cfg    types.HTTPConfig
}

// NewCrossRefResolver creates a resolver sharing client.
func NewCrossRefResolver(client *http.Client, cfg types.HTTPConfig) *CrossRefResolver {
	return &CrossRefResolver{client: client, cfg: cfg}
}

// Resolve fetches the work record for doi. Unknown DOIs and non-2xx
// responses are errors.
func (r *CrossRefResolver) Resolve(ctx context.Context, doi string) (Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+NormalizeDOI(doi), nil)
	if err != nil {
		return Metadata{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, r.client, req, r.cfg.MaxRetries)
	if err != nil {
		return Metadata{}, fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "CrossRef API"); err != nil {
		return Metadata{}, err
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Metadata{}, fmt.Errorf("parsing CrossRef response: %w", err)
	}
	return cr.Message.metadata(), nil
}

func (w crossrefWork) metadata() Metadata {
	authors := lo.FilterMap(w.Author, func(a crossrefAuthor, _ int) (string, bool) {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		return name, name != ""
	})
	return Metadata{
		Title:    first(w.Title),
		Authors:  strings.Join(authors, ", "),
		Journal:  first(w.ContainerTitle),
		Abstract: StripMarkup(w.Abstract),
	}
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.TrimSpace(s[0])
}

// StripMarkup removes XML/HTML tags (CrossRef abstracts carry JATS markup
// such as <jats:p>), decodes entities and collapses whitespace.
func StripMarkup(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}
