// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search turns a topic into an ordered list of candidate page URLs.
// The Adapter wraps a web-search Provider, biases the query toward
// educational content, and enforces the domain denylist on the way out.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Provider queries a single web-search API.
type Provider interface {
	Name() string
	Search(ctx context.Context, req Request) ([]Hit, error)
}

// Request holds the parameters sent to a Provider.
type Request struct {
	Query          string
	Depth          string
	MaxResults     int
	ExcludeDomains []string
}

// Hit is one search result. Only URL is consumed downstream.
type Hit struct {
	URL     string  `json:"url"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Adapter issues qualified queries through a Provider and filters the
// results. Provider failures are absorbed: Search returns an empty slice.
type Adapter struct {
	provider Provider
	cfg      types.SearchConfig
	log      *zap.Logger
}

// NewAdapter returns an Adapter over p. A nil logger discards records.
func NewAdapter(p Provider, cfg types.SearchConfig, log *zap.Logger) *Adapter {
	return &Adapter{provider: p, cfg: cfg, log: logging.Named(log, "search")}
}

// Search returns at most maxResults URLs for topic, in provider rank order,
// with empty, duplicate, and denylisted URLs removed. A maxResults of zero
// or less uses the configured default.
func (a *Adapter) Search(ctx context.Context, topic string, maxResults int) []string {
	hits, err := a.SearchHits(ctx, topic, maxResults)
	if err != nil {
		return []string{}
	}
	urls := make([]string, len(hits))
	for i, h := range hits {
		urls[i] = h.URL
	}
	return urls
}

// SearchHits is Search with the full hit records. Unlike Search it reports
// provider errors to the caller.
func (a *Adapter) SearchHits(ctx context.Context, topic string, maxResults int) ([]Hit, error) {
	if maxResults <= 0 {
		maxResults = a.cfg.MaxResults
	}
	query := Qualify(topic, a.cfg.Qualifier)
	if strings.TrimSpace(topic) == "" {
		a.log.Warn("empty search topic")
		return []Hit{}, nil
	}
	if a.provider == nil {
		err := fmt.Errorf("no search provider configured")
		a.log.Error("search failed", zap.String("query", query), zap.Error(err))
		return []Hit{}, err
	}

	a.log.Info("search issued",
		zap.String("provider", a.provider.Name()),
		zap.String("query", query),
		zap.Int("max_results", maxResults))

	hits, err := a.provider.Search(ctx, Request{
		Query:          query,
		Depth:          a.cfg.Depth,
		MaxResults:     maxResults,
		ExcludeDomains: a.cfg.ExcludeDomains,
	})
	if err != nil {
		a.log.Error("search failed",
			zap.String("provider", a.provider.Name()),
			zap.String("query", query),
			zap.Error(err))
		return []Hit{}, err
	}

	kept := filterHits(hits, a.cfg.ExcludeDomains, maxResults)
	a.log.Info("search completed",
		zap.String("query", query),
		zap.Int("returned", len(hits)),
		zap.Int("results", len(kept)))
	return kept, nil
}

// Qualify appends the qualifier to topic unless topic already ends with it.
func Qualify(topic, qualifier string) string {
	topic = strings.TrimSpace(topic)
	qualifier = strings.TrimSpace(qualifier)
	if qualifier == "" || strings.HasSuffix(strings.ToLower(topic), strings.ToLower(qualifier)) {
		return topic
	}
	return topic + " " + qualifier
}

// filterHits drops empty, duplicate, and excluded URLs and caps the result.
func filterHits(hits []Hit, exclude []string, max int) []Hit {
	seen := make(map[string]bool, len(hits))
	kept := make([]Hit, 0, min(len(hits), max))
	for _, h := range hits {
		if len(kept) >= max {
			break
		}
		u := strings.TrimSpace(h.URL)
		if u == "" || seen[u] || Excluded(u, exclude) {
			continue
		}
		seen[u] = true
		h.URL = u
		kept = append(kept, h)
	}
	return kept
}

// Excluded reports whether rawURL's host is one of domains or a subdomain
// of one. Unparseable URLs are excluded.
func Excluded(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return true
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "."))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// FormatTable writes hits as a human-readable table to w.
func FormatTable(hits []Hit, w io.Writer) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-50s  %s\n", "Rank", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, h := range hits {
		fmt.Fprintf(w, "%-4d  %-50s  %s\n", i+1, truncate(h.Title, 50), h.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(hits))
}

// FormatJSON writes hits as indented JSON to w.
func FormatJSON(hits []Hit, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(hits)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
