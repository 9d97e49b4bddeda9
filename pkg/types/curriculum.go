// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
)

// GenerationSource records which step of the fallback chain produced a curriculum.
type GenerationSource string

const (
	SourcePrimary  GenerationSource = "primary"
	SourceFallback GenerationSource = "fallback"
	SourceNone     GenerationSource = "none"
)

// SourcesNone is the marker reported in place of a source list when the
// curriculum was not generated from the research notes.
const SourcesNone = "none"

// PlaceholderText is the curriculum text returned when every backend failed.
const PlaceholderText = "Ask ChatGpt"

// CurriculumResult is the terminal artifact of the synthesis stage.
type CurriculumResult struct {
	// Text is the generated Markdown curriculum.
	Text string

	// Source is the step of the fallback chain that produced Text.
	Source GenerationSource

	// Sources lists the research URLs the curriculum was built from. It is
	// nil unless Source is SourcePrimary.
	Sources []string

	// Backend names the concrete model backend (e.g. "gemini", "ollama").
	// Empty for the placeholder.
	Backend string
}

// PlaceholderResult is the result returned once the fallback chain is exhausted.
func PlaceholderResult() CurriculumResult {
	return CurriculumResult{Text: PlaceholderText, Source: SourceNone}
}

// HasSources reports whether Sources carries research URLs rather than the
// "none" marker.
func (r CurriculumResult) HasSources() bool {
	return r.Source == SourcePrimary
}

// SourcesLabel returns the source list, or ["none"] when the curriculum was
// not built from research notes.
func (r CurriculumResult) SourcesLabel() []string {
	if !r.HasSources() {
		return []string{SourcesNone}
	}
	return r.Sources
}

// curriculumWire is the serialized shape: sources is either a list of URLs
// or the string "none".
type curriculumWire struct {
	Text    string           `json:"text" yaml:"text"`
	Source  GenerationSource `json:"source" yaml:"source"`
	Sources any              `json:"sources" yaml:"sources"`
	Backend string           `json:"backend,omitempty" yaml:"backend,omitempty"`
}

func (r CurriculumResult) wire() curriculumWire {
	w := curriculumWire{Text: r.Text, Source: r.Source, Backend: r.Backend}
	if r.HasSources() {
		sources := r.Sources
		if sources == nil {
			sources = []string{}
		}
		w.Sources = sources
	} else {
		w.Sources = SourcesNone
	}
	return w
}

// MarshalJSON renders sources as the string "none" for non-primary results.
func (r CurriculumResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// UnmarshalJSON accepts sources as either a list of URLs or "none".
func (r *CurriculumResult) UnmarshalJSON(data []byte) error {
	var w struct {
		Text    string           `json:"text"`
		Source  GenerationSource `json:"source"`
		Sources json.RawMessage  `json:"sources"`
		Backend string           `json:"backend"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = CurriculumResult{Text: w.Text, Source: w.Source, Backend: w.Backend}
	if len(w.Sources) > 0 && w.Sources[0] == '[' {
		if err := json.Unmarshal(w.Sources, &r.Sources); err != nil {
			return err
		}
	}
	return nil
}

// MarshalYAML renders sources as the string "none" for non-primary results.
func (r CurriculumResult) MarshalYAML() (any, error) {
	return r.wire(), nil
}
