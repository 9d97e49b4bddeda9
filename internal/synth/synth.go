// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synth turns a research bundle into a Markdown curriculum. It
// renders the curriculum prompt and walks an ordered fallback chain: the
// primary model with the full prompt, the secondary model with the topic
// alone, and finally a static placeholder.
package synth

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/llm"
	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// NoteSeparator joins note texts in the research blob.
const NoteSeparator = "\n\n---\n\n"

var errNoBackend = errors.New("backend not available")

// Synthesizer generates curricula. Either generator may be nil, in which
// case that step of the chain counts as failed.
type Synthesizer struct {
	primary   llm.Generator
	secondary llm.Generator
	prompt    *Prompt
	cfg       types.SynthConfig
	log       *zap.Logger
}

// New returns a Synthesizer. A nil prompt uses DefaultPrompt.
func New(primary, secondary llm.Generator, prompt *Prompt, cfg types.SynthConfig, log *zap.Logger) *Synthesizer {
	if prompt == nil {
		prompt = DefaultPrompt()
	}
	return &Synthesizer{
		primary:   primary,
		secondary: secondary,
		prompt:    prompt,
		cfg:       cfg,
		log:       logging.Named(log, "synth"),
	}
}

// Selection is the slice of a bundle that goes into the prompt.
type Selection struct {
	Notes   []string
	Images  []string
	Sources []string
}

// Select takes at most MaxNotes note texts, MaxImages images, and
// MaxSources sources from b, preserving order.
func (s *Synthesizer) Select(b types.ResearchBundle) Selection {
	notes := make([]string, 0, len(b.Notes))
	for _, n := range head(b.Notes, s.cfg.MaxNotes) {
		notes = append(notes, n.Text)
	}
	return Selection{
		Notes:   notes,
		Images:  append([]string{}, head(b.Images, s.cfg.MaxImages)...),
		Sources: append([]string{}, head(b.Sources, s.cfg.MaxSources)...),
	}
}

// PromptData returns the template values for topic and sel.
func (sel Selection) PromptData(topic string) PromptData {
	images := strings.Join(sel.Images, "\n")
	if images == "" {
		images = NoImages
	}
	return PromptData{
		Topic:    topic,
		Research: strings.Join(sel.Notes, NoteSeparator),
		Images:   images,
	}
}

// BuildPrompt renders the full prompt for topic and b.
func (s *Synthesizer) BuildPrompt(topic string, b types.ResearchBundle) (string, Selection, error) {
	sel := s.Select(b)
	prompt, err := s.prompt.Render(sel.PromptData(topic))
	return prompt, sel, err
}

// Synthesize generates a curriculum for topic from b. It never fails: when
// both backends fail it returns types.PlaceholderResult.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, b types.ResearchBundle) types.CurriculumResult {
	prompt, sel, err := s.BuildPrompt(topic, b)
	if err != nil {
		s.log.Error("prompt rendering failed", zap.String("topic", topic), zap.Error(err))
	} else {
		s.log.Info("curriculum generation started",
			zap.String("topic", topic),
			zap.Int("research_chars", utf8.RuneCountInString(sel.PromptData(topic).Research)),
			zap.Int("sources", len(sel.Sources)),
			zap.Int("images", len(sel.Images)))

		if text, name, ok := s.attempt(ctx, "primary", s.primary, prompt); ok {
			return types.CurriculumResult{
				Text:    text,
				Source:  types.SourcePrimary,
				Sources: sel.Sources,
				Backend: name,
			}
		}
		s.log.Warn("primary backend failed, trying secondary with topic only")
	}

	if text, name, ok := s.attempt(ctx, "secondary", s.secondary, topic); ok {
		return types.CurriculumResult{
			Text:    text,
			Source:  types.SourceFallback,
			Backend: name,
		}
	}

	s.log.Error("all backends failed, returning placeholder", zap.String("topic", topic))
	return types.PlaceholderResult()
}

// attempt runs one step of the chain and logs its outcome.
func (s *Synthesizer) attempt(ctx context.Context, role string, g llm.Generator, prompt string) (string, string, bool) {
	if g == nil {
		s.log.Error("generation failed", zap.String("role", role), zap.Error(errNoBackend))
		return "", "", false
	}
	name := g.Name()
	s.log.Info("generation attempt",
		zap.String("role", role),
		zap.String("backend", name),
		zap.Int("prompt_chars", utf8.RuneCountInString(prompt)))

	start := time.Now()
	text, err := g.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		s.log.Error("generation failed",
			zap.String("role", role),
			zap.String("backend", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", name, false
	}

	s.log.Info("generation succeeded",
		zap.String("role", role),
		zap.String("backend", name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", utf8.RuneCountInString(text)))
	return text, name, true
}

func head[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
