// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline inspects a generated curriculum for the sections the
// curriculum prompt asks for.
package outline

import (
	"fmt"
	"regexp"
	"strings"
)

// RequiredSections are the top-level sections every curriculum should have.
var RequiredSections = []string{
	"Overview", "Learning Outcomes", "Modules", "Projects", "Capstone", "References",
}

// ExpectedModules is the module count the curriculum prompt requests.
const ExpectedModules = 6

var (
	// headingPattern matches ATX headings: "## Title" with optional closing hashes.
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

	// modulePattern matches a module heading: "Module 3", "Module 3: Generics".
	modulePattern = regexp.MustCompile(`(?i)^(?:\W*)module\s+\d+\b`)

	// imagePattern matches Markdown images and captures the URL.
	imagePattern = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)

	// linkPattern matches Markdown links to http(s) targets.
	linkPattern = regexp.MustCompile(`\[[^\]]*\]\(\s*<?(https?://[^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)

	// bareURLPattern matches URLs outside link syntax.
	bareURLPattern = regexp.MustCompile(`https?://[^\s)\]>"]+`)
)

// Heading is one Markdown heading.
type Heading struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// Report summarizes the structure of a curriculum.
type Report struct {
	// Title is the first level-one heading, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	Headings []Heading `json:"headings" yaml:"headings"`

	// Modules counts "Module N" headings.
	Modules int `json:"modules" yaml:"modules"`

	// Images lists embedded image URLs in document order.
	Images []string `json:"images" yaml:"images"`

	// References lists the URLs in the References section, deduplicated.
	References []string `json:"references" yaml:"references"`

	// Missing lists required sections without a matching heading.
	Missing []string `json:"missing" yaml:"missing"`
}

// Complete reports whether every required section is present.
func (r Report) Complete() bool {
	return len(r.Missing) == 0
}

// Warnings returns human-readable findings, empty when the curriculum has
// every section and the expected number of modules.
func (r Report) Warnings() []string {
	var w []string
	for _, m := range r.Missing {
		w = append(w, fmt.Sprintf("missing section %q", m))
	}
	if r.Modules != ExpectedModules {
		w = append(w, fmt.Sprintf("found %d modules, expected %d", r.Modules, ExpectedModules))
	}
	return w
}

// Inspect scans markdown and reports its structure. Headings and links inside
// fenced code blocks are ignored.
func Inspect(markdown string) Report {
	r := Report{
		Headings:   []Heading{},
		Images:     []string{},
		References: []string{},
		Missing:    []string{},
	}

	inFence := false
	inRefs := false
	refLevel := 0
	seenRef := make(map[string]bool)

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			h := Heading{Level: len(m[1]), Text: stripEmphasis(m[2])}
			r.Headings = append(r.Headings, h)
			if h.Level == 1 && r.Title == "" {
				r.Title = h.Text
			}
			if modulePattern.MatchString(h.Text) {
				r.Modules++
			}
			switch {
			case sectionMatches(h.Text, "References"):
				inRefs, refLevel = true, h.Level
			case inRefs && h.Level <= refLevel:
				inRefs = false
			}
			continue
		}

		for _, m := range imagePattern.FindAllStringSubmatch(line, -1) {
			r.Images = append(r.Images, m[1])
		}

		if inRefs {
			for _, u := range referenceURLs(line) {
				if !seenRef[u] {
					seenRef[u] = true
					r.References = append(r.References, u)
				}
			}
		}
	}

	for _, s := range RequiredSections {
		if !hasSection(r.Headings, s) {
			r.Missing = append(r.Missing, s)
		}
	}
	return r
}

// referenceURLs returns link targets on a line, falling back to bare URLs.
// Image URLs are not references.
func referenceURLs(line string) []string {
	line = imagePattern.ReplaceAllString(line, "")
	var urls []string
	for _, m := range linkPattern.FindAllStringSubmatch(line, -1) {
		urls = append(urls, m[1])
	}
	if len(urls) > 0 {
		return urls
	}
	for _, u := range bareURLPattern.FindAllString(line, -1) {
		urls = append(urls, strings.TrimRight(u, ".,;:"))
	}
	return urls
}

func hasSection(headings []Heading, name string) bool {
	for _, h := range headings {
		if sectionMatches(h.Text, name) {
			return true
		}
	}
	return false
}

// sectionMatches reports whether heading text names the section. Numbering
// and trailing words are allowed: "2. Learning Outcomes" and
// "Capstone Project" both match.
func sectionMatches(text, name string) bool {
	t := strings.ToLower(strings.TrimLeft(text, "0123456789.) "))
	n := strings.ToLower(name)
	if !strings.HasPrefix(t, n) {
		return false
	}
	rest := t[len(n):]
	return rest == "" || !isWordByte(rest[0])
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func stripEmphasis(s string) string {
	return strings.TrimSpace(strings.Trim(s, "*_`"))
}
