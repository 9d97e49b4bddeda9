// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// geminiBaseURL overrides the Gemini API endpoint when non-empty. Declared
// as a var so tests can substitute an httptest server.
var geminiBaseURL = ""

// GeminiGenerator calls a Gemini model through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates the genai client. No request is made until
// Generate is called.
func NewGeminiGenerator(ctx context.Context, cfg types.PrimaryLLMConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w: api key is empty", ErrNotConfigured)
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if geminiBaseURL != "" {
		cc.HTTPOptions.BaseURL = geminiBaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

// Name returns the backend identifier.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}
