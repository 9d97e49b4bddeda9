// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.ArchiveConfig{Path: filepath.Join(t.TempDir(), "db", "curricula.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func primaryState(topic string) types.PipelineState {
	draft := "# " + topic + "\n## Overview\n"
	notes := []types.PageNote{{URL: "https://example.com/a", Text: "body"}}
	return types.PipelineState{
		Topic:           topic,
		ResearchData:    types.NewResearchBundle(notes, []string{"https://example.com/a.png"}),
		CurriculumDraft: &draft,
		Curriculum: types.CurriculumResult{
			Text:    draft,
			Source:  types.SourcePrimary,
			Sources: []string{"https://example.com/a"},
			Backend: "gemini",
		},
		Stage: types.StageDone,
		Transitions: []types.Transition{
			{From: types.StageSearching, To: types.StageCrawling, At: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
		ResearchAttempts: 1,
	}
}

func placeholderState(topic string) types.PipelineState {
	draft := types.PlaceholderText
	return types.PipelineState{
		Topic:           topic,
		ResearchData:    types.EmptyBundle(types.StatusNoResults),
		CurriculumDraft: &draft,
		Curriculum:      types.PlaceholderResult(),
		Stage:           types.StageDegraded,
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	saved, err := s.Save(ctx, primaryState("Go"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	got, err := s.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, time.Microsecond)
	assert.Equal(t, "Go", got.State.Topic)
	assert.Equal(t, types.SourcePrimary, got.State.Curriculum.Source)
	assert.Equal(t, []string{"https://example.com/a"}, got.State.Curriculum.Sources)
	assert.Equal(t, types.StatusOK, got.State.ResearchData.Status)
	assert.Equal(t, saved.State.Draft(), got.State.Draft())
	require.Len(t, got.State.Transitions, 1)
}

func TestGetNotFound(t *testing.T) {
	_, err := testStore(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	topics := []string{"Go concurrency", "Rust ownership", "Go generics", "100% coverage"}
	for i, topic := range topics {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		st := primaryState(topic)
		if i == 1 {
			st = placeholderState(topic)
		}
		_, err := s.Save(ctx, st)
		require.NoError(t, err)
	}

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "100% coverage", all[0].Topic, "newest first")
	assert.Equal(t, types.SourceNone, all[2].Source)
	assert.Equal(t, types.StageDegraded, all[2].Stage)
	assert.Equal(t, "gemini", all[0].Backend)

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"topic match", ListOptions{Query: "go"}, []string{"Go generics", "Go concurrency"}},
		{"case insensitive", ListOptions{Query: "RUST"}, []string{"Rust ownership"}},
		{"literal percent", ListOptions{Query: "100%"}, []string{"100% coverage"}},
		{"limit", ListOptions{Limit: 1}, []string{"100% coverage"}},
		{"no match", ListOptions{Query: "haskell"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.opts)
			require.NoError(t, err)
			topics := []string{}
			for _, r := range got {
				topics = append(topics, r.Topic)
			}
			assert.Equal(t, tt.want, topics)
		})
	}
}

func TestNewStoreRequiresPath(t *testing.T) {
	_, err := NewStore(types.ArchiveConfig{}, nil)
	assert.Error(t, err)
}

func TestExportMarkdown(t *testing.T) {
	created := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

	t.Run("primary lists sources", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportMarkdown(&buf, Run{ID: "abc", CreatedAt: created, State: primaryState("Go")}))

		out := buf.String()
		require.True(t, strings.HasPrefix(out, "---\n"))
		parts := strings.SplitN(out, "---\n", 3)
		require.Len(t, parts, 3)

		var fm map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
		assert.Equal(t, "Go", fm["topic"])
		assert.Equal(t, "primary", fm["source"])
		assert.Equal(t, []any{"https://example.com/a"}, fm["sources"])
		assert.Equal(t, "2026-05-06T07:08:09Z", fm["created_at"])
		assert.Equal(t, "\n# Go\n## Overview\n", parts[2])
	})

	t.Run("placeholder reports none", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ExportMarkdown(&buf, Run{CreatedAt: created, State: placeholderState("Go")}))
		assert.Contains(t, buf.String(), "sources: none\n")
		assert.True(t, strings.HasSuffix(buf.String(), types.PlaceholderText+"\n"))
	})
}

func TestExportJSONAndYAML(t *testing.T) {
	run := Run{ID: "abc", CreatedAt: time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC), State: placeholderState("Go")}

	var jb bytes.Buffer
	require.NoError(t, Export(&jb, run, FormatJSON))
	var decoded Run
	require.NoError(t, json.Unmarshal(jb.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded.ID)
	assert.Equal(t, types.SourceNone, decoded.State.Curriculum.Source)
	assert.Contains(t, jb.String(), `"sources": "none"`)

	var yb bytes.Buffer
	require.NoError(t, Export(&yb, run, FormatYAML))
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(yb.Bytes(), &doc))
	assert.Equal(t, "abc", doc["id"])
	state, ok := doc["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Go", state["topic"])
	assert.Equal(t, "degraded", state["stage"])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"YML", FormatYAML, false},
		{"json", FormatJSON, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "yaml", FormatYAML.Ext())
}
