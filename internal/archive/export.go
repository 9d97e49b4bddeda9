// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// ParseFormat maps a format name (or common alias) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want md, yaml, or json)", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatJSON:
		return "application/json"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Export writes run to w in the given format.
func Export(w io.Writer, run Run, f Format) error {
	switch f {
	case FormatMarkdown:
		return ExportMarkdown(w, run)
	case FormatYAML:
		return ExportYAML(w, run)
	case FormatJSON:
		return ExportJSON(w, run)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// frontmatter is the YAML header of a Markdown export.
type frontmatter struct {
	ID          string                 `yaml:"id,omitempty"`
	Topic       string                 `yaml:"topic"`
	Source      types.GenerationSource `yaml:"source"`
	Backend     string                 `yaml:"backend,omitempty"`
	Sources     any                    `yaml:"sources"`
	Stage       types.Stage            `yaml:"stage,omitempty"`
	NeedsReview bool                   `yaml:"needs_review,omitempty"`
	CreatedAt   string                 `yaml:"created_at"`
}

// ExportMarkdown writes the curriculum with YAML frontmatter recording the
// topic, generation source, sources, and creation time.
func ExportMarkdown(w io.Writer, run Run) error {
	st := run.State
	fm := frontmatter{
		ID:          run.ID,
		Topic:       st.Topic,
		Source:      st.Curriculum.Source,
		Backend:     st.Curriculum.Backend,
		Sources:     types.SourcesNone,
		Stage:       st.Stage,
		NeedsReview: st.NeedsReview,
		CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),
	}
	if st.Curriculum.HasSources() {
		fm.Sources = st.Curriculum.Sources
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(st.Draft())
	if !strings.HasSuffix(st.Draft(), "\n") {
		b.WriteString("\n")
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// ExportYAML writes the full run as YAML.
func ExportYAML(w io.Writer, run Run) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the full run as indented JSON.
func ExportJSON(w io.Writer, run Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
