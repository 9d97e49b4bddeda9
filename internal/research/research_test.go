// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

type fakeSearcher struct {
	urls     []string
	gotQuery string
	gotMax   int
}

func (f *fakeSearcher) Search(_ context.Context, query string, max int) []string {
	f.gotQuery, f.gotMax = query, max
	return f.urls
}

type fakeFetcher struct {
	pages   map[string]string
	panicOn string
	cancel  context.CancelFunc
}

func (f *fakeFetcher) FetchAndClean(_ context.Context, u string) (string, []string) {
	if u == f.panicOn {
		panic("boom")
	}
	if f.cancel != nil {
		f.cancel()
	}
	return f.pages[u], []string{u + "diagram.png"}
}

func article(n int) string { return strings.Repeat("a", n) }

func newAggregator(s Searcher, f *fakeFetcher, log *zap.Logger) *Aggregator {
	return NewAggregator(s, f, types.DefaultConfig(), log)
}

func TestResearchOK(t *testing.T) {
	s := &fakeSearcher{urls: []string{"https://a.example/", "https://b.example/", "https://c.example/"}}
	f := &fakeFetcher{pages: map[string]string{
		"https://a.example/": article(800),
		"https://b.example/": article(100),
		"https://c.example/": article(1200),
	}}

	b := newAggregator(s, f, nil).Research(context.Background(), "  graph theory ")

	assert.Equal(t, "graph theory comprehensive guide", s.gotQuery)
	assert.Equal(t, 10, s.gotMax)

	require.True(t, b.OK())
	assert.Equal(t, types.StatusOK, b.Status)
	assert.Equal(t, "Crawled 2 high-quality articles", b.Summary)
	assert.Equal(t, []string{"https://a.example/", "https://c.example/"}, b.Sources)
	require.Len(t, b.Notes, 2)
	for i, n := range b.Notes {
		assert.Equal(t, b.Sources[i], n.URL)
	}
	assert.Len(t, b.Images, 3, "images come from every crawled page")
}

func TestResearchNoResults(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := newAggregator(&fakeSearcher{}, &fakeFetcher{}, zap.New(core)).Research(context.Background(), "zzzz")

	assert.Equal(t, types.StatusNoResults, b.Status)
	assert.Equal(t, "no_results", b.Summary)
	assert.Empty(t, b.Notes)
	assert.Equal(t, 1, logs.FilterMessage("no search results").Len())
}

func TestResearchNilSearcher(t *testing.T) {
	b := NewAggregator(nil, &fakeFetcher{}, types.DefaultConfig(), nil).Research(context.Background(), "go")
	assert.Equal(t, types.StatusNoResults, b.Status)
}

func TestResearchNoContent(t *testing.T) {
	s := &fakeSearcher{urls: []string{"https://a.example/", "https://b.example/"}}
	f := &fakeFetcher{pages: map[string]string{"https://a.example/": article(500)}}

	b := newAggregator(s, f, nil).Research(context.Background(), "go")
	assert.Equal(t, types.StatusNoContent, b.Status)
	assert.Equal(t, "no_content", b.Summary)
	assert.Empty(t, b.Notes)
	assert.Empty(t, b.Sources)
}

func TestResearchCrawlPanicIsError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	s := &fakeSearcher{urls: []string{"https://a.example/", "https://b.example/"}}
	f := &fakeFetcher{pages: map[string]string{"https://a.example/": article(900)}, panicOn: "https://b.example/"}

	b := newAggregator(s, f, zap.New(core)).Research(context.Background(), "go")
	assert.Equal(t, types.StatusError, b.Status)
	assert.Equal(t, "error", b.Summary)
	assert.Empty(t, b.Notes)
	assert.Equal(t, 1, logs.FilterMessage("crawl failed").Len())
}

func TestResearchCancelledIsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &fakeSearcher{urls: []string{"https://a.example/", "https://b.example/"}}
	f := &fakeFetcher{pages: map[string]string{"https://a.example/": article(900)}, cancel: cancel}

	b := newAggregator(s, f, nil).Research(ctx, "go")
	assert.Equal(t, types.StatusError, b.Status)
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	var urls []string
	pages := map[string]string{}
	for _, h := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		u := "https://" + h + ".example/"
		urls = append(urls, u)
		pages[u] = article(1000)
	}
	b := newAggregator(&fakeSearcher{}, &fakeFetcher{pages: pages}, nil).Crawl(context.Background(), urls)
	assert.Len(t, b.Notes, 6)
	assert.Equal(t, urls[:6], b.Sources)
}
