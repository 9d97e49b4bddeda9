// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// NoImages replaces the image list in the prompt when research found none.
const NoImages = "No images available"

// defaultPrompt is the built-in curriculum prompt.
const defaultPrompt = `
You are a senior curriculum designer for an EdTech product.

Topic: {{.Topic}}

Research notes :
{{.Research}}

Available image URLs (use where relevant; embed as markdown images):
{{.Images}}

Instructions:
- Produce a clear, structured curriculum in Markdown.
- Include:
- Overview
- Learning Outcomes
- 6 Modules
- Projects
- Capstone
- Include optional images by inserting in the lines in the modules based on the image text using markdown:
  ![caption](image_url)
- At the end, include a short "References" section listing sources.

Return only the markdown (no commentary).
`

// PromptData holds the values substituted into a prompt template.
type PromptData struct {
	Topic    string
	Research string
	Images   string
}

// requiredFields must each appear in a rendered prompt.
var requiredFields = []string{"Topic", "Research", "Images"}

// Prompt is a parsed, validated curriculum prompt template.
type Prompt struct {
	tmpl *template.Template
}

// DefaultPrompt returns the built-in prompt.
func DefaultPrompt() *Prompt {
	p, err := ParsePrompt("curriculum", defaultPrompt)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrompt parses text as a template and checks that rendering it
// substitutes every PromptData field. Unknown fields fail here rather than
// at generation time.
func ParsePrompt(name, text string) (*Prompt, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template %s: %w", name, err)
	}
	p := &Prompt{tmpl: tmpl}

	probe := PromptData{Topic: "\x00topic\x00", Research: "\x00research\x00", Images: "\x00images\x00"}
	out, err := p.Render(probe)
	if err != nil {
		return nil, fmt.Errorf("validating prompt template %s: %w", name, err)
	}
	var missing []string
	for _, f := range requiredFields {
		if !strings.Contains(out, "\x00"+strings.ToLower(f)+"\x00") {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt template %s does not use {{.%s}}", name, strings.Join(missing, "}}, {{."))
	}
	return p, nil
}

// LoadPromptFile reads and validates a prompt template from path.
func LoadPromptFile(path string) (*Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompt file: %w", err)
	}
	return ParsePrompt(path, string(data))
}

// Render executes the template with d.
func (p *Prompt) Render(d PromptData) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
