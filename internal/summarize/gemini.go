// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

const geminiPrompt = `Summarize the following excerpt from a research paper in three to five sentences of plain prose that will be read aloud. Do not use markdown, lists, or headings. Keep technical terms as written.

Excerpt:
---
%s
---`

// contentGenerator is the part of the genai Models service used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini summarizes chunks with a Gemini model.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a Gemini API client for apiKey.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini backend requires an API key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: client.Models, model: model}, nil
}

// Summarize sends one chunk with the summarization prompt.
func (g *Gemini) Summarize(ctx context.Context, chunk string) (string, error) {
	result, err := g.models.GenerateContent(ctx, g.model, genai.Text(fmt.Sprintf(geminiPrompt, chunk)), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var b strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("empty response from Gemini")
}
