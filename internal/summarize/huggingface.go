// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/research-podcast/internal/httputil"
)

// huggingFaceAPIBase is the Inference API endpoint prefix. Package-level var
// for test substitution.
var huggingFaceAPIBase = "https://router.huggingface.co/hf-inference/models/"

// DefaultHuggingFaceModel is a distilled BART fine-tuned on CNN/DailyMail.
const DefaultHuggingFaceModel = "sshleifer/distilbart-cnn-12-6"

// Summary length bounds, in tokens, passed to the model.
const (
	summaryMaxLength = 200
	summaryMinLength = 50
)

// HuggingFace calls a summarization model on the Hugging Face Inference API.
type HuggingFace struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxLength  int  `json:"max_length"`
	MinLength  int  `json:"min_length"`
	Truncation bool `json:"truncation"`
}

type hfSummary struct {
	SummaryText string `json:"summary_text"`
}

// Summarize sends one chunk to the model. HTTP 503 (model loading) and 429
// are retried by httputil.DoWithRetry.
func (h *HuggingFace) Summarize(ctx context.Context, chunk string) (string, error) {
	model := h.Model
	if model == "" {
		model = DefaultHuggingFaceModel
	}

	body, err := json.Marshal(hfRequest{
		Inputs: chunk,
		Parameters: hfParameters{
			MaxLength:  summaryMaxLength,
			MinLength:  summaryMinLength,
			Truncation: true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, huggingFaceAPIBase+model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.APIKey)
	}

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, h.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Hugging Face API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Hugging Face API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out []hfSummary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding Hugging Face response: %w", err)
	}
	if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return "", fmt.Errorf("Hugging Face API returned no summary")
	}
	return out[0].SummaryText, nil
}
