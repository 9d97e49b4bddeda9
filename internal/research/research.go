// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research composes search and crawl into one operation that
// produces a ResearchBundle for a topic. Callers only see the bundle; the
// fetch mechanics stay behind this boundary.
package research

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/crawl"
	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// QuerySuffix is appended to the topic to form the search query.
const QuerySuffix = "comprehensive guide"

// Searcher returns candidate URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []string
}

// Aggregator runs the research half of the pipeline.
type Aggregator struct {
	searcher   Searcher
	fetcher    crawl.PageFetcher
	maxResults int
	maxPages   int
	crawlOpts  crawl.Options
	log        *zap.Logger
}

// NewAggregator returns an Aggregator that searches with s and crawls with
// f, using the result and page limits of cfg.
func NewAggregator(s Searcher, f crawl.PageFetcher, cfg types.Config, log *zap.Logger) *Aggregator {
	return &Aggregator{
		searcher:   s,
		fetcher:    f,
		maxResults: cfg.Search.MaxResults,
		maxPages:   cfg.Crawl.MaxPages,
		crawlOpts:  crawl.OptionsFrom(cfg.Crawl, log),
		log:        logging.Named(log, "research"),
	}
}

// Query returns the search query for topic.
func Query(topic string) string {
	return strings.TrimSpace(topic) + " " + QuerySuffix
}

// Research searches for topic and crawls the results. The returned bundle
// always carries a status: no_results when search found nothing,
// no_content when no page survived cleaning, error when crawling failed,
// ok otherwise.
func (a *Aggregator) Research(ctx context.Context, topic string) types.ResearchBundle {
	urls := a.Search(ctx, topic)
	if len(urls) == 0 {
		return types.EmptyBundle(types.StatusNoResults)
	}
	return a.Crawl(ctx, urls)
}

// Search returns candidate URLs for topic. It never fails; an unavailable
// provider yields an empty slice.
func (a *Aggregator) Search(ctx context.Context, topic string) []string {
	q := Query(topic)
	var urls []string
	if a.searcher != nil {
		urls = a.searcher.Search(ctx, q, a.maxResults)
	}
	if len(urls) == 0 {
		a.log.Warn("no search results", zap.String("topic", topic), zap.String("query", q))
		return []string{}
	}
	a.log.Info("search results", zap.String("topic", topic), zap.Int("urls", len(urls)))
	return urls
}

// Crawl turns urls into a bundle. A panic inside the crawl or a cancelled
// context is reported as StatusError instead of propagating.
func (a *Aggregator) Crawl(ctx context.Context, urls []string) (bundle types.ResearchBundle) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("crawl failed",
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.ByteString("stack", debug.Stack()))
			bundle = types.EmptyBundle(types.StatusError)
		}
	}()

	notes, images := crawl.CrawlURLs(ctx, a.fetcher, urls, a.maxPages, a.crawlOpts)
	if err := ctx.Err(); err != nil {
		a.log.Error("crawl interrupted", zap.Int("notes", len(notes)), zap.Error(err))
		return types.EmptyBundle(types.StatusError)
	}

	bundle = types.NewResearchBundle(notes, images)
	if !bundle.OK() {
		a.log.Warn("no usable content", zap.Int("urls", len(urls)), zap.Int("images", len(images)))
		return bundle
	}

	a.log.Info("research complete",
		zap.String("summary", bundle.Summary),
		zap.Int("notes", len(bundle.Notes)),
		zap.Int("images", len(bundle.Images)),
		zap.Int("chars", bundle.TotalChars()))
	return bundle
}
