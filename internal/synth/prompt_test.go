// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPrompt(t *testing.T) {
	out, err := DefaultPrompt().Render(PromptData{Topic: "Photography", Research: "RESEARCH", Images: NoImages})
	require.NoError(t, err)

	for _, want := range []string{
		"Topic: Photography",
		"RESEARCH",
		NoImages,
		"- Overview",
		"- Learning Outcomes",
		"- 6 Modules",
		"- Projects",
		"- Capstone",
		"![caption](image_url)",
		`"References"`,
		"Return only the markdown (no commentary).",
	} {
		assert.Contains(t, out, want)
	}
}

func TestParsePrompt(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"all fields", "{{.Topic}} / {{.Research}} / {{.Images}}", ""},
		{"missing images", "{{.Topic}} / {{.Research}}", "{{.Images}}"},
		{"missing two", "{{.Topic}}", "{{.Research}}, {{.Images}}"},
		{"unknown field", "{{.Topic}} {{.Research}} {{.Images}} {{.Audience}}", "Audience"},
		{"syntax error", "{{.Topic", "parsing prompt template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrompt("test", tt.text)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadPromptFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.tmpl")
	require.NoError(t, os.WriteFile(good, []byte("Course on {{.Topic}}\n{{.Research}}\n{{.Images}}\n"), 0o644))

	p, err := LoadPromptFile(good)
	require.NoError(t, err)
	out, err := p.Render(PromptData{Topic: "Go", Research: "R", Images: "I"})
	require.NoError(t, err)
	assert.Equal(t, "Course on Go\nR\nI\n", out)

	bad := filepath.Join(dir, "bad.tmpl")
	require.NoError(t, os.WriteFile(bad, []byte("Course on {{.Topic}}"), 0o644))
	_, err = LoadPromptFile(bad)
	assert.Error(t, err)

	_, err = LoadPromptFile(filepath.Join(dir, "missing.tmpl"))
	assert.Error(t, err)
}
