// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps the text-generation backends used by curriculum
// synthesis. Each backend is an opaque prompt-in, text-out service.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("empty model response")

// ErrNotConfigured is returned when a backend lacks the settings it needs
// to make a call.
var ErrNotConfigured = errors.New("backend not configured")

// Generator produces text for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
