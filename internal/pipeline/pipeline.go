// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences research and curriculum synthesis for a topic.
//
// The controller is a small state machine:
//
//	searching -> crawling -> synthesizing -> done
//
// Any failed step moves the run to the degraded terminal state instead of
// aborting it, so Invoke always returns a state with a curriculum draft.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Researcher runs the two research steps separately so the controller can
// record the searching and crawling states.
type Researcher interface {
	Search(ctx context.Context, topic string) []string
	Crawl(ctx context.Context, urls []string) types.ResearchBundle
}

// Synthesizer produces a curriculum from research.
type Synthesizer interface {
	Synthesize(ctx context.Context, topic string, b types.ResearchBundle) types.CurriculumResult
}

// Controller runs pipelines. It holds no per-run state and may be shared.
type Controller struct {
	research Researcher
	synth    Synthesizer
	gate     types.QualityGateConfig
	log      *zap.Logger
	now      func() time.Time
}

// New returns a Controller. The quality gate in cfg is only consulted when
// enabled; otherwise research runs exactly once.
func New(r Researcher, s Synthesizer, cfg types.PipelineConfig, log *zap.Logger) *Controller {
	return &Controller{
		research: r,
		synth:    s,
		gate:     cfg.QualityGate,
		log:      logging.Named(log, "pipeline"),
		now:      time.Now,
	}
}

// run is the mutable state of one Invoke.
type run struct {
	c        *Controller
	state    types.PipelineState
	degraded []string
}

func (r *run) move(to types.Stage, reason string) {
	r.state.Transitions = append(r.state.Transitions, types.Transition{
		From:   r.state.Stage,
		To:     to,
		Reason: reason,
		At:     r.c.now(),
	})
	r.c.log.Debug("stage transition",
		zap.String("from", string(r.state.Stage)),
		zap.String("to", string(to)),
		zap.String("reason", reason))
	r.state.Stage = to
}

// Invoke runs the pipeline for topic. It never panics; stage failures are
// recovered, logged, and reflected in the returned state.
func (c *Controller) Invoke(ctx context.Context, topic string) types.PipelineState {
	r := &run{c: c, state: types.PipelineState{
		Topic:        topic,
		ResearchData: types.EmptyBundle(types.StatusNoResults),
		Stage:        types.StageSearching,
		Transitions:  []types.Transition{},
	}}
	c.log.Info("pipeline started", zap.String("topic", topic))
	start := c.now()

	r.researchStage(ctx)
	r.curriculumStage(ctx)

	if len(r.degraded) == 0 {
		r.move(types.StageDone, "")
	} else {
		r.move(types.StageDegraded, strings.Join(r.degraded, "; "))
	}

	c.log.Info("pipeline finished",
		zap.String("topic", topic),
		zap.String("stage", string(r.state.Stage)),
		zap.String("research", r.state.ResearchData.Summary),
		zap.String("source", string(r.state.Curriculum.Source)),
		zap.Int("research_attempts", r.state.ResearchAttempts),
		zap.Bool("needs_review", r.state.NeedsReview),
		zap.Duration("elapsed", c.now().Sub(start)))
	return r.state
}

// researchStage runs search and crawl, repeating them while the quality
// gate asks for a retry.
func (r *run) researchStage(ctx context.Context) {
	for {
		r.state.ResearchAttempts++
		b, results := r.researchOnce(ctx)
		r.state.ResearchData = b

		if !r.c.gate.Enabled {
			break
		}
		conf := Confidence(results, r.c.gate.ExpectedResults)
		if conf >= r.c.gate.Threshold {
			r.c.log.Info("research approved", zap.Float64("confidence", conf))
			break
		}
		retries := r.state.ResearchAttempts - 1
		if retries >= r.c.gate.MaxRetries || ctx.Err() != nil {
			r.state.NeedsReview = true
			r.c.log.Warn("research flagged for human review",
				zap.Float64("confidence", conf),
				zap.Float64("threshold", r.c.gate.Threshold),
				zap.Int("attempts", r.state.ResearchAttempts))
			break
		}
		r.c.log.Info("research below threshold, retrying",
			zap.Float64("confidence", conf),
			zap.Int("attempt", r.state.ResearchAttempts))
		r.move(types.StageSearching, fmt.Sprintf("confidence %.2f below %.2f", conf, r.c.gate.Threshold))
	}

	if !r.state.ResearchData.OK() {
		r.degraded = append(r.degraded, "research: "+r.state.ResearchData.Summary)
	}
	if r.state.NeedsReview {
		r.degraded = append(r.degraded, "research: needs review")
	}
}

// researchOnce runs one search and crawl pass and returns the bundle with
// the number of search results. The caller is left in the synthesizing stage.
func (r *run) researchOnce(ctx context.Context) (types.ResearchBundle, int) {
	var urls []string
	if err := r.guard("search", func() { urls = r.c.research.Search(ctx, r.state.Topic) }); err != nil {
		r.move(types.StageSynthesizing, err.Error())
		return types.EmptyBundle(types.StatusError), 0
	}
	if len(urls) == 0 {
		r.move(types.StageSynthesizing, string(types.StatusNoResults))
		return types.EmptyBundle(types.StatusNoResults), 0
	}

	r.move(types.StageCrawling, fmt.Sprintf("%d urls", len(urls)))
	var b types.ResearchBundle
	if err := r.guard("crawl", func() { b = r.c.research.Crawl(ctx, urls) }); err != nil {
		r.move(types.StageSynthesizing, err.Error())
		return types.EmptyBundle(types.StatusError), len(urls)
	}
	r.move(types.StageSynthesizing, b.Summary)
	return b, len(urls)
}

// curriculumStage runs synthesis and always leaves a draft in the state.
func (r *run) curriculumStage(ctx context.Context) {
	var res types.CurriculumResult
	err := r.guard("synthesize", func() {
		res = r.c.synth.Synthesize(ctx, r.state.Topic, r.state.ResearchData)
	})
	if err != nil {
		res = types.CurriculumResult{Text: types.CurriculumFailedText, Source: types.SourceNone}
		r.degraded = append(r.degraded, err.Error())
	} else if res.Source != types.SourcePrimary {
		r.degraded = append(r.degraded, "curriculum: source "+string(res.Source))
	}

	draft := res.Text
	r.state.Curriculum = res
	r.state.CurriculumDraft = &draft
}

// guard runs fn, converting a panic (or a missing collaborator) into an
// error that is logged with its stack.
func (r *run) guard(step string, fn func()) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s failed: %v", step, p)
			r.c.log.Error("stage failed",
				zap.String("step", step),
				zap.String("topic", r.state.Topic),
				zap.Error(err),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	fn()
	return nil
}

// Confidence is the research quality score used by the quality gate:
// the search result count relative to expected, capped at 1.
func Confidence(results, expected int) float64 {
	if expected <= 0 {
		expected = 1
	}
	c := float64(results) / float64(expected)
	if c > 1 {
		return 1
	}
	return c
}

// Result is the pipeline's external contract: the curriculum Markdown, the
// generation source tag, and the sources or "none".
type Result struct {
	Curriculum string
	Source     types.GenerationSource
	Sources    []string
}

// ResultOf extracts the Result from a finished state.
func ResultOf(s types.PipelineState) Result {
	res := Result{Curriculum: s.Draft(), Source: s.Curriculum.Source}
	if s.Curriculum.HasSources() {
		res.Sources = s.Curriculum.Sources
	}
	return res
}

// MarshalJSON renders sources as "none" unless the primary backend produced
// the curriculum.
func (r Result) MarshalJSON() ([]byte, error) {
	var sources any = types.SourcesNone
	if r.Source == types.SourcePrimary {
		s := r.Sources
		if s == nil {
			s = []string{}
		}
		sources = s
	}
	return json.Marshal(struct {
		Curriculum string                 `json:"curriculum"`
		Source     types.GenerationSource `json:"source"`
		Sources    any                    `json:"sources"`
	}{r.Curriculum, r.Source, sources})
}
