// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// InputKind identifies which of the three supported inputs an item carries.
type InputKind int

const (
	KindPDF InputKind = iota + 1
	KindDOI
	KindURL
)

func (k InputKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindDOI:
		return "doi"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// InputItem is one paper submitted in a batch. Exactly one of Data (PDF)
// or Ref (DOI or URL) is meaningful, depending on Kind.
type InputItem struct {
	Kind InputKind

	// Data holds the raw PDF bytes.
	Data []byte

	// Ref holds the DOI string or the URL.
	Ref string

	// DisplayName is the original filename for PDF uploads.
	DisplayName string
}

// NewPDFInput wraps uploaded PDF bytes with their original filename.
func NewPDFInput(name string, data []byte) InputItem {
	return InputItem{Kind: KindPDF, Data: data, DisplayName: name}
}

// NewDOIInput wraps a DOI reference.
func NewDOIInput(doi string) InputItem {
	return InputItem{Kind: KindDOI, Ref: doi}
}

// NewURLInput wraps a web page reference.
func NewURLInput(url string) InputItem {
	return InputItem{Kind: KindURL, Ref: url}
}

// SourceID identifies the item in citations: the filename for PDFs,
// otherwise the DOI or URL as submitted.
func (i InputItem) SourceID() string {
	if i.Kind == KindPDF {
		return i.DisplayName
	}
	return i.Ref
}

// ExtractedDocument is the plain-text form of one InputItem.
type ExtractedDocument struct {
	SourceID string
	RawText  string

	// NameStem is the filesystem-safe stem used to name the audio artifact.
	NameStem string

	// Language is the detected ISO 639-1 code of RawText, empty if unknown.
	Language string

	// Err is set when extraction failed and RawText holds sentinel text.
	Err error
}

// ItemFailure records a recovered failure for one item at one stage.
type ItemFailure struct {
	Stage   string `json:"stage" yaml:"stage"`
	Message string `json:"message" yaml:"message"`
}

// PaperSummary accumulates per-item results as the pipeline advances.
type PaperSummary struct {
	SourceID      string
	SummaryText   string
	Topic         string
	AudioFilename string
	Failures      []ItemFailure
}

// SynthesisResult is the cross-paper narrative and its audio artifact.
type SynthesisResult struct {
	Text string `json:"text" yaml:"text"`

	// AudioFilename is nil when the synthesis could not be rendered.
	AudioFilename *string `json:"audio" yaml:"audio"`
}

// Citation maps one submitted source to its topic and audio artifact.
type Citation struct {
	Source string `json:"source" yaml:"source"`
	Topic  string `json:"topic" yaml:"topic"`

	// Audio is nil when rendering failed for this item.
	Audio *string `json:"audio" yaml:"audio"`

	// Errors lists recovered failures, omitted when the item went through cleanly.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// BatchResponse is the externally visible result of one batch. Citations
// follow input submission order.
type BatchResponse struct {
	BatchID   string          `json:"batch_id" yaml:"batch_id"`
	Synthesis SynthesisResult `json:"synthesis" yaml:"synthesis"`
	Citations []Citation      `json:"citations" yaml:"citations"`
}

// BatchRecord is a completed batch as kept in the history catalog.
type BatchRecord struct {
	ID        string         `json:"id" yaml:"id"`
	Topics    []string       `json:"topics" yaml:"topics"`
	Items     int            `json:"items" yaml:"items"`
	Failures  int            `json:"failures" yaml:"failures"`
	StartedAt time.Time      `json:"started_at" yaml:"started_at"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
	Response  *BatchResponse `json:"response,omitempty" yaml:"response,omitempty"`
}
