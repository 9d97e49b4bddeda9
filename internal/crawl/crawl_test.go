// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

type page struct {
	text   string
	images []string
}

type fakeFetcher struct {
	pages   map[string]page
	fetched []string
	onFetch func()
}

func (f *fakeFetcher) FetchAndClean(_ context.Context, u string) (string, []string) {
	f.fetched = append(f.fetched, u)
	if f.onFetch != nil {
		f.onFetch()
	}
	p := f.pages[u]
	return p.text, p.images
}

func textOf(n int) string { return strings.Repeat("x", n) }

func defaultOptions() Options {
	return OptionsFrom(types.DefaultConfig().Crawl, nil)
}

func TestCrawlURLs(t *testing.T) {
	f := &fakeFetcher{pages: map[string]page{
		"https://a.example/": {text: textOf(501), images: []string{"https://a.example/1.png"}},
		"https://b.example/": {text: textOf(500), images: []string{"https://b.example/1.png", "https://b.example/2.png"}},
		"https://c.example/": {text: textOf(2000)},
		"https://d.example/": {},
	}}
	urls := []string{"https://a.example/", "https://b.example/", "https://c.example/", "https://d.example/"}

	notes, images := CrawlURLs(context.Background(), f, urls, 6, defaultOptions())

	assert.Equal(t, urls, f.fetched, "pages are fetched in order")
	require.Len(t, notes, 2)
	assert.Equal(t, "https://a.example/", notes[0].URL)
	assert.Equal(t, "https://c.example/", notes[1].URL)
	assert.Equal(t, []string{"https://a.example/1.png", "https://b.example/1.png", "https://b.example/2.png"}, images,
		"images are kept even from skipped pages")
}

func TestCrawlURLsHonoursMaxPages(t *testing.T) {
	pages := map[string]page{}
	var urls []string
	for i := 0; i < 10; i++ {
		u := fmt.Sprintf("https://site%d.example/", i)
		urls = append(urls, u)
		pages[u] = page{text: textOf(600 + i)}
	}

	for _, max := range []int{0, 1, 5, 6, 10, 20} {
		t.Run(fmt.Sprint(max), func(t *testing.T) {
			f := &fakeFetcher{pages: pages}
			notes, _ := CrawlURLs(context.Background(), f, urls, max, defaultOptions())
			assert.LessOrEqual(t, len(notes), max)
			assert.Len(t, f.fetched, min(max, len(urls)))
			for _, n := range notes {
				assert.Greater(t, len([]rune(n.Text)), 500)
			}
		})
	}
}

func TestCrawlURLsEmptyInput(t *testing.T) {
	notes, images := CrawlURLs(context.Background(), &fakeFetcher{}, nil, 6, defaultOptions())
	assert.NotNil(t, notes)
	assert.NotNil(t, images)
	assert.Empty(t, notes)
	assert.Empty(t, images)
}

func TestCrawlURLsStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{
		pages: map[string]page{
			"https://a.example/": {text: textOf(900)},
			"https://b.example/": {text: textOf(900)},
		},
		onFetch: cancel,
	}
	notes, _ := CrawlURLs(ctx, f, []string{"https://a.example/", "https://b.example/"}, 6, defaultOptions())

	assert.Equal(t, []string{"https://a.example/"}, f.fetched)
	assert.Len(t, notes, 1)
}

func TestCrawlURLsPageDelay(t *testing.T) {
	f := &fakeFetcher{}
	opts := defaultOptions()
	opts.PageDelay = 20 * time.Millisecond

	start := time.Now()
	CrawlURLs(context.Background(), f, []string{"https://a.example/", "https://b.example/", "https://c.example/"}, 6, opts)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestCrawlURLsLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := &fakeFetcher{pages: map[string]page{"https://a.example/": {text: textOf(700)}}}
	opts := defaultOptions()
	opts.Log = zap.New(core)

	CrawlURLs(context.Background(), f, []string{"https://a.example/", "https://b.example/"}, 6, opts)

	extracted := logs.FilterMessage("page extracted").All()
	require.Len(t, extracted, 1)
	assert.EqualValues(t, 700, extracted[0].ContextMap()["chars"])
	assert.Equal(t, 1, logs.FilterMessage("page skipped").Len())
}
