// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// APIKey authenticates against the search provider (Tavily).
	APIKey string `json:"-" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxResults caps the number of URLs returned (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Depth is the provider search depth (default "advanced").
	Depth string `json:"depth" yaml:"depth" mapstructure:"depth"`

	// Qualifier is appended to every query to bias results toward
	// educational content.
	Qualifier string `json:"qualifier" yaml:"qualifier" mapstructure:"qualifier"`

	// ExcludeDomains lists low-signal domains never returned.
	ExcludeDomains []string `json:"exclude_domains" yaml:"exclude_domains" mapstructure:"exclude_domains"`
}

// Renderer names accepted by CrawlConfig.Renderer.
const (
	RendererBrowser = "browser"
	RendererHTTP    = "http"
)

// CrawlConfig holds settings for page fetching, extraction, and cleaning.
type CrawlConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Renderer selects how pages are retrieved: "browser" (headless Chrome)
	// or "http" (plain GET).
	Renderer string `json:"renderer" yaml:"renderer" mapstructure:"renderer"`

	// BrowserURL is the DevTools WebSocket URL of an existing Chrome.
	// Empty launches a local headless Chrome.
	BrowserURL string `json:"browser_url,omitempty" yaml:"browser_url,omitempty" mapstructure:"browser_url"`

	// MaxPages is the number of URLs crawled per run (default 6).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// PageDelay is an optional pause between consecutive pages.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay" mapstructure:"page_delay"`

	// MinContentLength is the length a page's text must exceed to become a note (default 500).
	MinContentLength int `json:"min_content_length" yaml:"min_content_length" mapstructure:"min_content_length"`

	// MaxTextLength truncates cleaned page text (default 15000).
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length" mapstructure:"max_text_length"`

	// MaxImagesPerPage caps images kept per page (default 10).
	MaxImagesPerPage int `json:"max_images_per_page" yaml:"max_images_per_page" mapstructure:"max_images_per_page"`

	// MinLineLength drops shorter lines during cleaning (default 10).
	MinLineLength int `json:"min_line_length" yaml:"min_line_length" mapstructure:"min_line_length"`

	// WordCountThreshold drops text blocks with fewer words (default 20).
	WordCountThreshold int `json:"word_count_threshold" yaml:"word_count_threshold" mapstructure:"word_count_threshold"`

	// ContentSelector is the comma-separated list of content regions.
	ContentSelector string `json:"content_selector" yaml:"content_selector" mapstructure:"content_selector"`

	// ExcludedTags lists elements removed before extraction.
	ExcludedTags []string `json:"excluded_tags" yaml:"excluded_tags" mapstructure:"excluded_tags"`

	// BoilerplateTerms drops lines containing any term (case-insensitive).
	BoilerplateTerms []string `json:"boilerplate_terms" yaml:"boilerplate_terms" mapstructure:"boilerplate_terms"`

	// ImageExcludePatterns drops image URLs containing any pattern.
	ImageExcludePatterns []string `json:"image_exclude_patterns" yaml:"image_exclude_patterns" mapstructure:"image_exclude_patterns"`
}

// PrimaryLLMConfig holds settings for the primary (hosted) model backend.
type PrimaryLLMConfig struct {
	// Model is the Gemini model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the Gemini API.
	APIKey string `json:"-" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// SecondaryLLMConfig holds settings for the secondary (local) model backend.
type SecondaryLLMConfig struct {
	// URL is the Ollama generate endpoint.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// Model is the Ollama model name.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Timeout bounds one generate call (default 140s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// SynthConfig holds settings for curriculum synthesis.
type SynthConfig struct {
	// MaxNotes caps the note texts included in the prompt (default 6).
	MaxNotes int `json:"max_notes" yaml:"max_notes" mapstructure:"max_notes"`

	// MaxImages caps the image URLs included in the prompt (default 8).
	MaxImages int `json:"max_images" yaml:"max_images" mapstructure:"max_images"`

	// MaxSources caps the sources reported with a primary result (default 6).
	MaxSources int `json:"max_sources" yaml:"max_sources" mapstructure:"max_sources"`

	// PromptFile optionally replaces the built-in prompt template.
	PromptFile string `json:"prompt_file,omitempty" yaml:"prompt_file,omitempty" mapstructure:"prompt_file"`
}

// QualityGateConfig configures the opt-in quality-gated research retry policy.
type QualityGateConfig struct {
	// Enabled switches from the linear policy to the quality gate.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Threshold is the minimum confidence that approves research (default 0.6).
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// MaxRetries is the number of research retries before review (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// ExpectedResults is the note count that maps to full confidence (default 5).
	ExpectedResults int `json:"expected_results" yaml:"expected_results" mapstructure:"expected_results"`
}

// PipelineConfig holds settings for the pipeline controller.
type PipelineConfig struct {
	QualityGate QualityGateConfig `json:"quality_gate" yaml:"quality_gate" mapstructure:"quality_gate"`
}

// ArchiveConfig holds settings for the run archive.
type ArchiveConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds settings for the structured log sinks.
type LogConfig struct {
	// File is the append-only JSON log file. Empty disables the file sink.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	// Level is the minimum level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Console enables the human-readable stderr sink.
	Console bool `json:"console" yaml:"console" mapstructure:"console"`
}

// ServerConfig holds settings for the HTTP UI.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups all stage configurations.
type Config struct {
	Search    SearchConfig       `json:"search" yaml:"search" mapstructure:"search"`
	Crawl     CrawlConfig        `json:"crawl" yaml:"crawl" mapstructure:"crawl"`
	Primary   PrimaryLLMConfig   `json:"primary" yaml:"primary" mapstructure:"primary"`
	Secondary SecondaryLLMConfig `json:"secondary" yaml:"secondary" mapstructure:"secondary"`
	Synth     SynthConfig        `json:"synth" yaml:"synth" mapstructure:"synth"`
	Pipeline  PipelineConfig     `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Archive   ArchiveConfig      `json:"archive" yaml:"archive" mapstructure:"archive"`
	Log       LogConfig          `json:"log" yaml:"log" mapstructure:"log"`
	Server    ServerConfig       `json:"server" yaml:"server" mapstructure:"server"`
}

const defaultUserAgent = "curriculum-engine/0.1"

// DefaultExcludeDomains are low-signal domains (Q&A sites, social networks,
// paywalled course platforms) excluded from search.
var DefaultExcludeDomains = []string{
	"quora.com", "stackoverflow.com",
	"zhihu.com", "baidu.com", "csdn.net", "udemy.com",
	"coursera.org", "linkedin.com", "facebook.com", "twitter.com", "magai.co",
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: defaultUserAgent},
			MaxResults:     10,
			Depth:          "advanced",
			Qualifier:      "tutorial guide comprehensive",
			ExcludeDomains: append([]string(nil), DefaultExcludeDomains...),
		},
		Crawl: CrawlConfig{
			HTTPConfig:         HTTPConfig{Timeout: 45 * time.Second, UserAgent: defaultUserAgent},
			Renderer:           RendererBrowser,
			MaxPages:           6,
			MinContentLength:   500,
			MaxTextLength:      15000,
			MaxImagesPerPage:   10,
			MinLineLength:      10,
			WordCountThreshold: 20,
			ContentSelector:    "article, main, .content, .post, .article, [role=main]",
			ExcludedTags: []string{
				"nav", "footer", "header", "aside", "form", "button",
				"script", "style", "iframe", "noscript", "advertisement", "sidebar",
			},
			BoilerplateTerms:     []string{"cookie", "subscribe", "newsletter", "menu", "sign in", "log in"},
			ImageExcludePatterns: []string{"logo", "icon", "avatar", "thumbnail"},
		},
		Primary: PrimaryLLMConfig{
			Model: "gemini-flash-latest",
		},
		Secondary: SecondaryLLMConfig{
			URL:     "http://localhost:11434/api/generate",
			Model:   "llama3.1:8b",
			Timeout: 140 * time.Second,
		},
		Synth: SynthConfig{
			MaxNotes:   6,
			MaxImages:  8,
			MaxSources: 6,
		},
		Pipeline: PipelineConfig{
			QualityGate: QualityGateConfig{
				Threshold:       0.6,
				MaxRetries:      2,
				ExpectedResults: 5,
			},
		},
		Archive: ArchiveConfig{Path: "output/curricula.db"},
		Log:     LogConfig{File: "logs.json", Level: "info", Console: true},
		Server:  ServerConfig{Addr: ":8080"},
	}
}
