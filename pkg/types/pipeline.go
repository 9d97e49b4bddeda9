// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage is a state of the pipeline state machine.
type Stage string

const (
	StageSearching    Stage = "searching"
	StageCrawling     Stage = "crawling"
	StageSynthesizing Stage = "synthesizing"
	StageDone         Stage = "done"
	StageDegraded     Stage = "degraded"
)

// Transition records one move of the state machine and why it happened.
type Transition struct {
	From   Stage     `json:"from" yaml:"from"`
	To     Stage     `json:"to" yaml:"to"`
	Reason string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	At     time.Time `json:"at" yaml:"at"`
}

// CurriculumFailedText is the draft recorded when the curriculum stage itself
// fails, as opposed to the backends failing inside it.
const CurriculumFailedText = "Curriculum generation failed."

// PipelineState is threaded through the pipeline stages. Each stage reads the
// fields set before it and fills in its own.
type PipelineState struct {
	// Topic is the subject the curriculum is generated for.
	Topic string `json:"topic" yaml:"topic"`

	// ResearchData is the research stage output; an empty bundle with
	// StatusError if the stage failed.
	ResearchData ResearchBundle `json:"research_data" yaml:"research_data"`

	// CurriculumDraft is nil until the curriculum stage has run and is never
	// nil after the pipeline returns.
	CurriculumDraft *string `json:"curriculum_draft" yaml:"curriculum_draft"`

	// Curriculum is the full synthesis result behind CurriculumDraft.
	Curriculum CurriculumResult `json:"curriculum" yaml:"curriculum"`

	// Stage is the current (after Invoke, terminal) state.
	Stage Stage `json:"stage" yaml:"stage"`

	// Transitions lists every state change in order.
	Transitions []Transition `json:"transitions" yaml:"transitions"`

	// ResearchAttempts counts research stage runs (more than one only under
	// the quality gate policy).
	ResearchAttempts int `json:"research_attempts" yaml:"research_attempts"`

	// NeedsReview is set by the quality gate when research stayed below the
	// confidence threshold after all retries.
	NeedsReview bool `json:"needs_review" yaml:"needs_review"`
}

// Draft returns the curriculum draft, or "" if none has been set.
func (s PipelineState) Draft() string {
	if s.CurriculumDraft == nil {
		return ""
	}
	return *s.CurriculumDraft
}

// Degraded reports whether the run finished in the degraded state.
func (s PipelineState) Degraded() bool {
	return s.Stage == StageDegraded
}
