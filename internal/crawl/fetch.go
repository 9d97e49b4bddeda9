// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl fetches web pages and reduces them to cleaned research
// text plus the content images they reference.
//
// A Fetcher renders one page (headless Chrome or plain HTTP), scopes it to
// its content regions, converts those to Markdown, and cleans the result.
// CrawlURLs drives a Fetcher over a list of URLs one page at a time.
package crawl

import (
	"context"
	"fmt"
	"runtime/debug"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// PageFetcher is the single-page operation CrawlURLs depends on.
type PageFetcher interface {
	FetchAndClean(ctx context.Context, pageURL string) (string, []string)
}

// Fetcher renders, extracts, and cleans single pages.
type Fetcher struct {
	renderer  Renderer
	extractor *Extractor
	cleaner   Cleaner
	log       *zap.Logger
}

// NewFetcher returns a Fetcher that renders pages with r.
func NewFetcher(r Renderer, cfg types.CrawlConfig, log *zap.Logger) *Fetcher {
	return &Fetcher{
		renderer:  r,
		extractor: NewExtractor(cfg),
		cleaner:   NewCleaner(cfg),
		log:       logging.Named(log, "crawl"),
	}
}

// FetchAndClean returns the cleaned text and filtered image URLs of
// pageURL. Any render or parse failure, including a panic in the
// renderer, is logged and yields ("", nil).
func (f *Fetcher) FetchAndClean(ctx context.Context, pageURL string) (text string, images []string) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("page fetch panicked",
				zap.String("url", pageURL),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			text, images = "", nil
		}
	}()

	ext, err := f.fetch(ctx, pageURL)
	if err != nil {
		f.log.Error("page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return "", nil
	}

	text, images = f.cleaner.Clean(ext.Markdown, ext.Images)
	f.log.Debug("page cleaned",
		zap.String("url", pageURL),
		zap.Int("raw_chars", utf8.RuneCountInString(ext.Markdown)),
		zap.Int("chars", utf8.RuneCountInString(text)),
		zap.Int("images", len(images)))
	return text, images
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (Extraction, error) {
	if f.renderer == nil {
		return Extraction{}, fmt.Errorf("no renderer configured")
	}
	doc, err := f.renderer.Render(ctx, pageURL)
	if err != nil {
		return Extraction{}, err
	}
	return f.extractor.Extract(doc, pageURL)
}
