// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the curriculum-engine pipeline:
// research bundles produced by the research stage, curriculum results produced
// by the synthesis stage, the pipeline state threaded between them, and the
// configuration for every stage.
package types

import (
	"fmt"
	"unicode/utf8"
)

// ResearchStatus classifies the outcome of the research stage. Callers
// switch on it instead of inspecting slice lengths.
type ResearchStatus string

const (
	StatusOK        ResearchStatus = "ok"
	StatusNoResults ResearchStatus = "no_results"
	StatusNoContent ResearchStatus = "no_content"
	StatusError     ResearchStatus = "error"
)

// PageNote is the cleaned text extracted from one crawled page.
type PageNote struct {
	// URL is the page the text was extracted from.
	URL string `json:"url" yaml:"url"`

	// Text is the cleaned Markdown body, truncated to the crawl text limit.
	Text string `json:"text" yaml:"text"`
}

// ResearchBundle aggregates everything the research stage found for a topic.
// Sources always mirrors Notes[i].URL in order; construct bundles with
// NewResearchBundle or EmptyBundle to keep that true.
type ResearchBundle struct {
	// Status is the typed outcome of the research stage.
	Status ResearchStatus `json:"status" yaml:"status"`

	// Summary is the status string for degraded outcomes, or a short
	// description of what was crawled on success.
	Summary string `json:"summary" yaml:"summary"`

	// Notes holds the pages that passed the content threshold, in crawl order.
	Notes []PageNote `json:"notes" yaml:"notes"`

	// Images holds content image URLs from every crawled page, in crawl order.
	Images []string `json:"images" yaml:"images"`

	// Sources lists the URL of each note.
	Sources []string `json:"sources" yaml:"sources"`
}

// NewResearchBundle builds a successful bundle from crawled notes and images.
// A bundle without notes is reported as StatusNoContent.
func NewResearchBundle(notes []PageNote, images []string) ResearchBundle {
	if len(notes) == 0 {
		return EmptyBundle(StatusNoContent)
	}
	sources := make([]string, len(notes))
	for i, n := range notes {
		sources[i] = n.URL
	}
	return ResearchBundle{
		Status:  StatusOK,
		Summary: fmt.Sprintf("Crawled %d high-quality articles", len(notes)),
		Notes:   notes,
		Images:  images,
		Sources: sources,
	}
}

// EmptyBundle returns a bundle with no notes, images, or sources whose
// summary is the status string.
func EmptyBundle(status ResearchStatus) ResearchBundle {
	return ResearchBundle{
		Status:  status,
		Summary: string(status),
		Notes:   []PageNote{},
		Images:  []string{},
		Sources: []string{},
	}
}

// OK reports whether the research stage produced usable notes.
func (b ResearchBundle) OK() bool {
	return b.Status == StatusOK && len(b.Notes) > 0
}

// TotalChars returns the combined length of all note texts in runes.
func (b ResearchBundle) TotalChars() int {
	total := 0
	for _, n := range b.Notes {
		total += utf8.RuneCountInString(n.Text)
	}
	return total
}
