// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// maxOllamaResponse bounds the response body read from Ollama.
const maxOllamaResponse = 4 << 20

// OllamaGenerator calls a local Ollama server's generate endpoint.
type OllamaGenerator struct {
	Client *http.Client
	URL    string
	Model  string
}

// NewOllamaGenerator returns a generator whose HTTP client enforces the
// configured timeout on every call.
func NewOllamaGenerator(cfg types.SecondaryLLMConfig) *OllamaGenerator {
	return &OllamaGenerator{
		Client: &http.Client{Timeout: cfg.Timeout},
		URL:    cfg.URL,
		Model:  cfg.Model,
	}
}

// Name returns the backend identifier.
func (o *OllamaGenerator) Name() string { return "ollama" }

// Generate posts a single non-streaming generate request. Non-2xx statuses and
// malformed JSON are errors. The text is taken from "response", then
// "output", and otherwise is the raw JSON body.
func (o *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if o.URL == "" {
		return "", fmt.Errorf("ollama: %w: url is empty", ErrNotConfigured)
	}
	body, err := json.Marshal(ollamaRequest{Model: o.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("encoding ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxOllamaResponse))
	if err != nil {
		return "", fmt.Errorf("reading ollama response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("ollama returned HTTP %d: %s", resp.StatusCode, truncateBody(raw))
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("parsing ollama response: %w", err)
	}
	for _, key := range []string{"response", "output"} {
		if s, ok := out[key].(string); ok && strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
	return string(bytes.TrimSpace(raw)), nil
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

func truncateBody(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
