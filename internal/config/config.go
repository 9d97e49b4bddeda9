// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the runtime configuration from defaults, an
// optional YAML file, a .env file, environment variables, and the secrets
// directory, in increasing order of precedence for API keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/curriculum-engine/internal/logging"
	"github.com/pdiddy/curriculum-engine/internal/secrets"
	"github.com/pdiddy/curriculum-engine/pkg/types"
)

// ErrMissingRequired is returned by Require when a credential needed by the
// requested operation is absent.
var ErrMissingRequired = errors.New("missing required configuration")

// EnvPrefix namespaces environment overrides, e.g. CURRICULUM_ENGINE_CRAWL_MAX_PAGES.
const EnvPrefix = "CURRICULUM_ENGINE"

// keyEnv binds unprefixed provider variables to their config keys.
var keyEnv = map[string]string{
	"search.api_key":  "TAVILY_API_KEY",
	"primary.api_key": "GEMINI_API_KEY",
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Bind sets defaults and environment bindings on v so that every key in
// types.Config can be overridden through a config file or the environment.
func Bind(v *viper.Viper) {
	def := types.DefaultConfig()
	setDefaults(v, def)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range keyEnv {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}

// Load unmarshals v, which must have been prepared with Bind, into a Config.
// It fills API keys still empty from the
// secrets map and validates the result.
func Load(v *viper.Viper, secretMap map[string]string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	secrets.Fill(&cfg.Search.APIKey, secretMap, secrets.TavilyAPIKey)
	secrets.Fill(&cfg.Primary.APIKey, secretMap, secrets.GeminiAPIKey)

	if err := Validate(cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would make a stage misbehave. Missing API
// keys are not validation errors: the stages degrade without them.
func Validate(cfg types.Config) error {
	var errs []error
	positive := func(name string, n int) {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, n))
		}
	}

	positive("search.max_results", cfg.Search.MaxResults)
	positive("crawl.max_pages", cfg.Crawl.MaxPages)
	positive("crawl.max_text_length", cfg.Crawl.MaxTextLength)
	positive("crawl.max_images_per_page", cfg.Crawl.MaxImagesPerPage)
	positive("synth.max_notes", cfg.Synth.MaxNotes)
	positive("synth.max_images", cfg.Synth.MaxImages)
	positive("synth.max_sources", cfg.Synth.MaxSources)

	if cfg.Crawl.MinContentLength < 0 {
		errs = append(errs, fmt.Errorf("crawl.min_content_length must not be negative"))
	}
	switch cfg.Crawl.Renderer {
	case types.RendererBrowser, types.RendererHTTP:
	default:
		errs = append(errs, fmt.Errorf("crawl.renderer must be %q or %q, got %q",
			types.RendererBrowser, types.RendererHTTP, cfg.Crawl.Renderer))
	}
	if strings.TrimSpace(cfg.Crawl.ContentSelector) == "" {
		errs = append(errs, fmt.Errorf("crawl.content_selector must not be empty"))
	}
	if cfg.Secondary.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("secondary.timeout must be positive"))
	}
	if g := cfg.Pipeline.QualityGate; g.Enabled {
		if g.Threshold < 0 || g.Threshold > 1 {
			errs = append(errs, fmt.Errorf("pipeline.quality_gate.threshold must be in [0,1], got %v", g.Threshold))
		}
		positive("pipeline.quality_gate.expected_results", g.ExpectedResults)
		if g.MaxRetries < 0 {
			errs = append(errs, fmt.Errorf("pipeline.quality_gate.max_retries must not be negative"))
		}
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// Require returns ErrMissingRequired naming each credential the caller
// needs but the configuration lacks.
func Require(cfg types.Config, searchKey, primaryKey bool) error {
	var missing []string
	if searchKey && cfg.Search.APIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if primaryKey && cfg.Primary.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("search.timeout", d.Search.Timeout)
	v.SetDefault("search.user_agent", d.Search.UserAgent)
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("search.depth", d.Search.Depth)
	v.SetDefault("search.qualifier", d.Search.Qualifier)
	v.SetDefault("search.exclude_domains", d.Search.ExcludeDomains)

	v.SetDefault("crawl.timeout", d.Crawl.Timeout)
	v.SetDefault("crawl.user_agent", d.Crawl.UserAgent)
	v.SetDefault("crawl.renderer", d.Crawl.Renderer)
	v.SetDefault("crawl.browser_url", d.Crawl.BrowserURL)
	v.SetDefault("crawl.max_pages", d.Crawl.MaxPages)
	v.SetDefault("crawl.page_delay", d.Crawl.PageDelay)
	v.SetDefault("crawl.min_content_length", d.Crawl.MinContentLength)
	v.SetDefault("crawl.max_text_length", d.Crawl.MaxTextLength)
	v.SetDefault("crawl.max_images_per_page", d.Crawl.MaxImagesPerPage)
	v.SetDefault("crawl.min_line_length", d.Crawl.MinLineLength)
	v.SetDefault("crawl.word_count_threshold", d.Crawl.WordCountThreshold)
	v.SetDefault("crawl.content_selector", d.Crawl.ContentSelector)
	v.SetDefault("crawl.excluded_tags", d.Crawl.ExcludedTags)
	v.SetDefault("crawl.boilerplate_terms", d.Crawl.BoilerplateTerms)
	v.SetDefault("crawl.image_exclude_patterns", d.Crawl.ImageExcludePatterns)

	v.SetDefault("primary.model", d.Primary.Model)
	v.SetDefault("primary.api_key", "")
	v.SetDefault("secondary.url", d.Secondary.URL)
	v.SetDefault("secondary.model", d.Secondary.Model)
	v.SetDefault("secondary.timeout", d.Secondary.Timeout)

	v.SetDefault("synth.max_notes", d.Synth.MaxNotes)
	v.SetDefault("synth.max_images", d.Synth.MaxImages)
	v.SetDefault("synth.max_sources", d.Synth.MaxSources)
	v.SetDefault("synth.prompt_file", d.Synth.PromptFile)

	v.SetDefault("pipeline.quality_gate.enabled", d.Pipeline.QualityGate.Enabled)
	v.SetDefault("pipeline.quality_gate.threshold", d.Pipeline.QualityGate.Threshold)
	v.SetDefault("pipeline.quality_gate.max_retries", d.Pipeline.QualityGate.MaxRetries)
	v.SetDefault("pipeline.quality_gate.expected_results", d.Pipeline.QualityGate.ExpectedResults)

	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("server.addr", d.Server.Addr)
}
