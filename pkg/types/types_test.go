// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalCharsCountsRunes(t *testing.T) {
	b := NewResearchBundle([]PageNote{
		{URL: "https://example.com/a", Text: "héllo"},
		{URL: "https://example.com/b", Text: "日本語"},
	}, nil)
	assert.Equal(t, 8, b.TotalChars())
}

func TestSourcesLabel(t *testing.T) {
	tests := []struct {
		name string
		res  CurriculumResult
		want []string
	}{
		{"primary", CurriculumResult{Source: SourcePrimary, Sources: []string{"https://example.com"}}, []string{"https://example.com"}},
		{"fallback", CurriculumResult{Source: SourceFallback, Sources: []string{"https://example.com"}}, []string{SourcesNone}},
		{"placeholder", PlaceholderResult(), []string{SourcesNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.SourcesLabel())
		})
	}
}
