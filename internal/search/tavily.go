// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/curriculum-engine/internal/httputil"
)

// tavilyAPIURL is the Tavily search endpoint. Declared as a var so tests
// can substitute an httptest server.
var tavilyAPIURL = "https://api.tavily.com/search"

// TavilyProvider queries the Tavily web-search API.
type TavilyProvider struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the provider identifier.
func (p *TavilyProvider) Name() string { return "tavily" }

// Search posts req to Tavily and returns the ranked hits.
func (p *TavilyProvider) Search(ctx context.Context, req Request) ([]Hit, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("tavily API key not configured")
	}

	exclude := req.ExcludeDomains
	if exclude == nil {
		exclude = []string{}
	}
	body, err := json.Marshal(tavilyRequest{
		Query:          req.Query,
		SearchDepth:    req.Depth,
		MaxResults:     req.MaxResults,
		IncludeDomains: []string{},
		ExcludeDomains: exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding tavily request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	if p.UserAgent != "" {
		httpReq.Header.Set("User-Agent", p.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, p.Client, httpReq, 0)
	if err != nil {
		return nil, fmt.Errorf("tavily API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing tavily response: %w", err)
	}

	hits := make([]Hit, 0, len(tr.Results))
	for _, r := range tr.Results {
		hits = append(hits, Hit{URL: r.URL, Title: r.Title, Snippet: r.Content, Score: r.Score})
	}
	return hits, nil
}

// Tavily API JSON structures.
type tavilyRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains"`
	ExcludeDomains []string `json:"exclude_domains"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}
