// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/crawl"
	"github.com/pdiddy/curriculum-engine/internal/llm"
	"github.com/pdiddy/curriculum-engine/internal/pipeline"
	"github.com/pdiddy/curriculum-engine/internal/research"
	"github.com/pdiddy/curriculum-engine/internal/search"
	"github.com/pdiddy/curriculum-engine/internal/synth"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// newSearchAdapter returns the Tavily-backed search adapter.
func newSearchAdapter(cfg types.Config, log *zap.Logger) *search.Adapter {
	provider := &search.TavilyProvider{
		Client:    &http.Client{Timeout: cfg.Search.Timeout},
		APIKey:    cfg.Search.APIKey,
		UserAgent: cfg.Search.UserAgent,
	}
	return search.NewAdapter(provider, cfg.Search, log)
}

// newFetcher returns a page fetcher and a func that releases its renderer.
func newFetcher(cfg types.Config, log *zap.Logger) (*crawl.Fetcher, func(), error) {
	r, err := crawl.NewRenderer(cfg.Crawl)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Warn("closing renderer failed", zap.Error(err))
			}
		}
	}
	return crawl.NewFetcher(r, cfg.Crawl, log), release, nil
}

// newSynthesizer builds the fallback chain. A missing Gemini key leaves the
// primary step empty so runs go straight to Ollama.
func newSynthesizer(ctx context.Context, cfg types.Config, log *zap.Logger) (*synth.Synthesizer, error) {
	var primary llm.Generator
	if cfg.Primary.APIKey != "" {
		g, err := llm.NewGeminiGenerator(ctx, cfg.Primary)
		if err != nil {
			log.Warn("gemini unavailable", zap.Error(err))
		} else {
			primary = g
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, primary backend disabled")
	}

	var prompt *synth.Prompt
	if cfg.Synth.PromptFile != "" {
		p, err := synth.LoadPromptFile(cfg.Synth.PromptFile)
		if err != nil {
			return nil, err
		}
		prompt = p
	}

	secondary := llm.NewOllamaGenerator(cfg.Secondary)
	return synth.New(primary, secondary, prompt, cfg.Synth, log), nil
}

// newController wires the full pipeline. The returned func releases the
// browser and must be called when the controller is no longer used.
func newController(ctx context.Context, cfg types.Config, log *zap.Logger) (*pipeline.Controller, func(), error) {
	if cfg.Search.APIKey == "" {
		log.Warn("TAVILY_API_KEY not set, research will find no results")
	}

	fetcher, release, err := newFetcher(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	synthesizer, err := newSynthesizer(ctx, cfg, log)
	if err != nil {
		release()
		return nil, nil, err
	}

	agg := research.NewAggregator(newSearchAdapter(cfg, log), fetcher, cfg, log)
	return pipeline.New(agg, synthesizer, cfg.Pipeline, log), release, nil
}
