// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Cleaner applies the deterministic post-processing rules to extracted
// page text and images. Lengths are measured in characters (runes).
type Cleaner struct {
	MinLineLength    int
	MaxTextLength    int
	MaxImages        int
	BoilerplateTerms []string
	ImageExclude     []string
}

// NewCleaner returns a Cleaner configured from cfg.
func NewCleaner(cfg types.CrawlConfig) Cleaner {
	terms := make([]string, 0, len(cfg.BoilerplateTerms))
	for _, t := range cfg.BoilerplateTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return Cleaner{
		MinLineLength:    cfg.MinLineLength,
		MaxTextLength:    cfg.MaxTextLength,
		MaxImages:        cfg.MaxImagesPerPage,
		BoilerplateTerms: terms,
		ImageExclude:     cfg.ImageExcludePatterns,
	}
}

// Clean returns the cleaned text and filtered images of one page.
func (c Cleaner) Clean(text string, images []string) (string, []string) {
	return c.Truncate(c.CleanLines(text)), c.FilterImages(images)
}

// FilterImages drops URLs containing any exclude pattern (case-sensitive
// substring) and keeps at most MaxImages of the rest, in order.
func (c Cleaner) FilterImages(images []string) []string {
	out := make([]string, 0, min(len(images), max(c.MaxImages, 0)))
	for _, img := range images {
		if c.MaxImages > 0 && len(out) >= c.MaxImages {
			break
		}
		if img == "" || containsAny(img, c.ImageExclude) {
			continue
		}
		out = append(out, img)
	}
	return out
}

// CleanLines trims every line and drops lines that are too short, repeat an
// earlier kept line exactly, or mention a boilerplate term in any case.
func (c Cleaner) CleanLines(text string) string {
	seen := make(map[string]bool)
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < c.MinLineLength {
			continue
		}
		if seen[line] {
			continue
		}
		if containsAny(strings.ToLower(line), c.BoilerplateTerms) {
			continue
		}
		seen[line] = true
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// Truncate cuts text to at most MaxTextLength runes.
func (c Cleaner) Truncate(text string) string {
	if c.MaxTextLength <= 0 || utf8.RuneCountInString(text) <= c.MaxTextLength {
		return text
	}
	return string([]rune(text)[:c.MaxTextLength])
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
