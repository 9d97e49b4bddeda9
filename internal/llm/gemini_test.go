// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

func withGeminiServer(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	old := geminiBaseURL
	geminiBaseURL = ts.URL + "/"
	t.Cleanup(func() { geminiBaseURL = old })
}

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	return string(b)
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath, gotKey, gotBody string
	withGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiReply("# Photography\n\n## Overview\n")))
	})

	g, err := NewGeminiGenerator(context.Background(), types.PrimaryLLMConfig{Model: "gemini-flash-latest", APIKey: "gem-key"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Name())

	text, err := g.Generate(context.Background(), "Design a photography course")
	require.NoError(t, err)

	assert.Equal(t, "# Photography\n\n## Overview", text)
	assert.True(t, strings.HasSuffix(gotPath, "gemini-flash-latest:generateContent"), gotPath)
	assert.Equal(t, "gem-key", gotKey)
	assert.Contains(t, gotBody, "Design a photography course")
}

func TestGeminiGenerateEmpty(t *testing.T) {
	withGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	})

	g, err := NewGeminiGenerator(context.Background(), types.PrimaryLLMConfig{Model: "gemini-flash-latest", APIKey: "k"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiGenerateAPIError(t *testing.T) {
	withGeminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	})

	g, err := NewGeminiGenerator(context.Background(), types.PrimaryLLMConfig{Model: "gemini-flash-latest", APIKey: "bad"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini generate")
}

func TestNewGeminiGeneratorWithoutKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), types.PrimaryLLMConfig{Model: "gemini-flash-latest"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
