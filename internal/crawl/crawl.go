// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Options tunes a CrawlURLs run.
type Options struct {
	// MinContentLength is the length a page's text must exceed to be kept.
	MinContentLength int
	// PageDelay pauses between consecutive pages.
	PageDelay time.Duration
	Log       *zap.Logger
}

// OptionsFrom returns the Options described by cfg.
func OptionsFrom(cfg types.CrawlConfig, log *zap.Logger) Options {
	return Options{MinContentLength: cfg.MinContentLength, PageDelay: cfg.PageDelay, Log: log}
}

// CrawlURLs fetches up to maxPages of urls strictly in order, one at a
// time. A page becomes a note when its cleaned text is longer than
// MinContentLength; images are collected from every page regardless.
// Cancelling ctx stops the crawl before the next page and returns what was
// gathered so far.
func CrawlURLs(ctx context.Context, f PageFetcher, urls []string, maxPages int, opts Options) ([]types.PageNote, []string) {
	log := logging.Named(opts.Log, "crawl")
	notes := []types.PageNote{}
	images := []string{}

	if maxPages < 0 {
		maxPages = 0
	}
	if len(urls) > maxPages {
		urls = urls[:maxPages]
	}

	for i, u := range urls {
		if ctx.Err() != nil {
			log.Warn("crawl cancelled", zap.Int("crawled", i), zap.Int("planned", len(urls)), zap.Error(ctx.Err()))
			break
		}
		if i > 0 && opts.PageDelay > 0 {
			select {
			case <-ctx.Done():
				continue
			case <-time.After(opts.PageDelay):
			}
		}

		text, imgs := f.FetchAndClean(ctx, u)
		images = append(images, imgs...)

		n := utf8.RuneCountInString(text)
		if n > opts.MinContentLength {
			notes = append(notes, types.PageNote{URL: u, Text: text})
			log.Info("page extracted", zap.String("url", u), zap.Int("chars", n), zap.Int("images", len(imgs)))
			continue
		}
		log.Info("page skipped", zap.String("url", u), zap.Int("chars", n), zap.Int("min_chars", opts.MinContentLength))
	}

	log.Info("crawl finished", zap.Int("pages", len(urls)), zap.Int("notes", len(notes)), zap.Int("images", len(images)))
	return notes, images
}
