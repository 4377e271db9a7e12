// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract normalizes a batch input (PDF bytes, DOI, or URL) into a
// block of plain text and a filesystem-safe name stem. Extraction never
// fails the batch: when a collaborator fails the document carries the
// Sentinel text and the cause in Err.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"

	"github.com/pdiddy/research-podcast/pkg/types"
)

// Sentinel replaces the text of an item whose extraction failed.
const Sentinel = "Metadata unavailable"

var (
	// ErrNotPDF reports an upload whose bytes are not a PDF document.
	ErrNotPDF = errors.New("upload is not a PDF document")

	// ErrNoText reports a PDF with no page that yielded text.
	ErrNoText = errors.New("no extractable text")

	// ErrNoParagraphs reports a web page without paragraph elements.
	ErrNoParagraphs = errors.New("page has no paragraph text")

	// ErrUnknownKind reports an input item of an unsupported kind.
	ErrUnknownKind = errors.New("unknown input kind")
)

// Page is the text of one PDF page. Err is set when the page could not be
// decoded; such pages are skipped.
type Page struct {
	Number int
	Text   string
	Err    error
}

// PageReader returns the per-page text of a PDF document. A partial result
// with failed pages marked is preferred over an error.
type PageReader interface {
	ReadPages(ctx context.Context, pdf []byte) ([]Page, error)
}

// Metadata holds the bibliographic fields rendered for a DOI.
type Metadata struct {
	Title    string
	Authors  string
	Journal  string
	Abstract string
}

// MetadataResolver looks up a DOI.
type MetadataResolver interface {
	Resolve(ctx context.Context, doi string) (Metadata, error)
}

// ParagraphFetcher returns the paragraph texts of a web page in document order.
type ParagraphFetcher interface {
	Paragraphs(ctx context.Context, url string) ([]string, error)
}

// Extractor dispatches each input kind to its collaborator.
type Extractor struct {
	pages    PageReader
	resolver MetadataResolver
	fetcher  ParagraphFetcher
	log      *slog.Logger
}

// New creates an Extractor from its three collaborators.
func New(pages PageReader, resolver MetadataResolver, fetcher ParagraphFetcher, log *slog.Logger) *Extractor {
	return &Extractor{pages: pages, resolver: resolver, fetcher: fetcher, log: log}
}

// Extract converts one item into an ExtractedDocument. It never returns an
// error; failures are reported through the document's Err field. NameStem is
// the raw stem for the item and is not yet de-duplicated against the batch.
func (e *Extractor) Extract(ctx context.Context, item types.InputItem) types.ExtractedDocument {
	doc := types.ExtractedDocument{
		SourceID: item.SourceID(),
		NameStem: Stem(item),
	}

	var text string
	var err error
	switch item.Kind {
	case types.KindPDF:
		text, err = e.extractPDF(ctx, item)
	case types.KindDOI:
		text, err = e.extractDOI(ctx, item.Ref)
	case types.KindURL:
		text, err = e.extractURL(ctx, item.Ref)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownKind, item.Kind)
	}

	if err != nil {
		e.log.Warn("extraction failed",
			"source", doc.SourceID, "kind", item.Kind.String(), "err", err)
		doc.RawText = Sentinel
		doc.Err = err
		return doc
	}

	doc.RawText = text
	doc.Language = detectLanguage(text)
	if doc.Language != "" && doc.Language != "en" {
		e.log.Info("non-English text will be read with the English voice",
			"source", doc.SourceID, "language", doc.Language)
	}
	return doc
}

func (e *Extractor) extractPDF(ctx context.Context, item types.InputItem) (string, error) {
	if !mimetype.Detect(item.Data).Is("application/pdf") {
		return "", ErrNotPDF
	}

	pages, err := e.pages.ReadPages(ctx, item.Data)
	if err != nil {
		return "", fmt.Errorf("reading pages: %w", err)
	}

	var texts []string
	for _, p := range pages {
		if p.Err != nil {
			e.log.Warn("skipping page", "source", item.SourceID(), "page", p.Number, "err", p.Err)
			continue
		}
		if strings.TrimSpace(p.Text) == "" {
			e.log.Debug("skipping blank page", "source", item.SourceID(), "page", p.Number)
			continue
		}
		texts = append(texts, p.Text)
	}
	if len(texts) == 0 {
		return "", ErrNoText
	}
	return strings.Join(texts, "\n"), nil
}

func (e *Extractor) extractDOI(ctx context.Context, doi string) (string, error) {
	md, err := e.resolver.Resolve(ctx, doi)
	if err != nil {
		return "", fmt.Errorf("resolving DOI %s: %w", doi, err)
	}
	return FormatMetadata(md), nil
}

func (e *Extractor) extractURL(ctx context.Context, url string) (string, error) {
	paras, err := e.fetcher.Paragraphs(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	paras = lo.Filter(paras, func(p string, _ int) bool { return strings.TrimSpace(p) != "" })
	if len(paras) == 0 {
		return "", ErrNoParagraphs
	}
	return strings.Join(paras, "\n"), nil
}

// FormatMetadata renders DOI metadata as labelled lines in a fixed order.
// Every label is present even when its value is empty.
func FormatMetadata(md Metadata) string {
	return fmt.Sprintf("Title: %s\nAuthors: %s\nJournal: %s\nAbstract: %s",
		md.Title, md.Authors, md.Journal, md.Abstract)
}

// detectLanguage returns the ISO 639-1 code of text.
func detectLanguage(text string) string {
	return whatlanggo.Detect(text).Lang.Iso6391()
}
