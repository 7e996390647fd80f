// Package config provides configuration loading and validation for the
// server and CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/profiler/internal/recommendation"
	"github.com/jonathan/profiler/internal/scoring"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultPort           = 8080
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultPeerLimit      = 10
	DefaultAnswerLimit    = 20
	DefaultConcurrency    = 4
	DefaultWebhookTimeout = 10
	DefaultBrowserTimeout = 30
)

// Config is the application configuration. It can be loaded from a JSON,
// TOML or YAML file and is then overlaid with environment variables.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty" toml:"database_url" yaml:"database_url"`
	Port        int    `json:"port,omitempty" toml:"port" yaml:"port"`

	APIKey   string `json:"api_key,omitempty" toml:"api_key" yaml:"api_key"` // Gemini API key
	LLMModel string `json:"llm_model,omitempty" toml:"llm_model" yaml:"llm_model"`

	Log             LogConfig             `json:"log" toml:"log" yaml:"log"`
	Recommendations RecommendationsConfig `json:"recommendations" toml:"recommendations" yaml:"recommendations"`
	Webhook         WebhookConfig         `json:"webhook" toml:"webhook" yaml:"webhook"`
	Fetch           FetchConfig           `json:"fetch" toml:"fetch" yaml:"fetch"`
	Template        TemplateConfig        `json:"template" toml:"template" yaml:"template"`
	Scoring         scoring.ScorerConfig  `json:"scoring" toml:"scoring" yaml:"scoring"`
}

// LogConfig selects the log level, format (text or json) and output
type LogConfig struct {
	Level  string `json:"level,omitempty" toml:"level" yaml:"level"`
	Format string `json:"format,omitempty" toml:"format" yaml:"format"`
	Output string `json:"output,omitempty" toml:"output" yaml:"output"` // stdout, stderr or a file path
}

// RecommendationsConfig tunes recommendation generation
type RecommendationsConfig struct {
	Policy      string  `json:"policy,omitempty" toml:"policy" yaml:"policy"`
	Threshold   float64 `json:"threshold,omitempty" toml:"threshold" yaml:"threshold"`
	PeerLimit   int     `json:"peer_limit,omitempty" toml:"peer_limit" yaml:"peer_limit"`
	AnswerLimit int     `json:"answer_limit,omitempty" toml:"answer_limit" yaml:"answer_limit"`
	Concurrency int     `json:"concurrency,omitempty" toml:"concurrency" yaml:"concurrency"`
}

// WebhookConfig enables notification delivery to a webhook
type WebhookConfig struct {
	URL            string `json:"url,omitempty" toml:"url" yaml:"url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// FetchConfig controls document ingestion from URLs
type FetchConfig struct {
	UseBrowser            bool `json:"use_browser,omitempty" toml:"use_browser" yaml:"use_browser"` // headless browser for JS-rendered pages
	BrowserTimeoutSeconds int  `json:"browser_timeout_seconds,omitempty" toml:"browser_timeout_seconds" yaml:"browser_timeout_seconds"`
}

// TemplateConfig points at a profile template file; empty uses the embedded default
type TemplateConfig struct {
	Path  string `json:"path,omitempty" toml:"path" yaml:"path"`
	Watch bool   `json:"watch,omitempty" toml:"watch" yaml:"watch"`
}

// Default returns a configuration with every default filled in
func Default() Config {
	return Config{
		Port: DefaultPort,
		Log:  LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat, Output: "stderr"},
		Recommendations: RecommendationsConfig{
			Policy:      recommendation.PolicyContainment,
			Threshold:   recommendation.DefaultOverlapThreshold,
			PeerLimit:   DefaultPeerLimit,
			AnswerLimit: DefaultAnswerLimit,
			Concurrency: DefaultConcurrency,
		},
		Webhook: WebhookConfig{TimeoutSeconds: DefaultWebhookTimeout},
		Fetch:   FetchConfig{BrowserTimeoutSeconds: DefaultBrowserTimeout},
		Scoring: scoring.DefaultScorerConfig(),
	}
}

// LoadConfig loads configuration from a file, choosing the decoder by
// extension: .json, .toml, .yaml or .yml.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(path), err)
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration. Unset or
// unparsable variables leave the field unchanged.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("PROFILER_WEBHOOK_URL"); v != "" {
		c.Webhook.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that the configuration has valid values and reports every
// problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 0 and 65535, got %d", c.Port))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	r := c.Recommendations
	if _, err := recommendation.NewPolicy(r.Policy, r.Threshold); err != nil {
		errs = append(errs, fmt.Errorf("recommendations.policy: %w", err))
	}
	if r.Threshold < 0 || r.Threshold > 1 {
		errs = append(errs, errors.New("recommendations.threshold must be between 0 and 1"))
	}
	if r.PeerLimit < 0 || r.AnswerLimit < 0 || r.Concurrency < 0 {
		errs = append(errs, errors.New("recommendations limits must be non-negative"))
	}

	if c.Webhook.URL != "" && !strings.HasPrefix(c.Webhook.URL, "http://") && !strings.HasPrefix(c.Webhook.URL, "https://") {
		errs = append(errs, fmt.Errorf("webhook.url must be an http(s) URL, got %q", c.Webhook.URL))
	}
	if c.Webhook.TimeoutSeconds < 0 || c.Fetch.BrowserTimeoutSeconds < 0 {
		errs = append(errs, errors.New("timeouts must be non-negative"))
	}

	if c.Template.Path != "" {
		if _, err := os.Stat(c.Template.Path); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("template file not found: %s", c.Template.Path))
		}
	}
	if c.Template.Watch && c.Template.Path == "" {
		errs = append(errs, errors.New("template.watch requires template.path"))
	}

	for name, cat := range c.Scoring.Categories {
		if cat.Weight < 0 {
			errs = append(errs, fmt.Errorf("scoring.categories.%s.weight must be non-negative", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config error: %w", errors.Join(errs...))
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. Bool fields cannot distinguish unset from false and are kept.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LLMModel == "" {
		result.LLMModel = defaults.LLMModel
	}

	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}
	if result.Log.Output == "" {
		result.Log.Output = defaults.Log.Output
	}

	r, d := &result.Recommendations, defaults.Recommendations
	if r.Policy == "" {
		r.Policy = d.Policy
	}
	if r.Threshold == 0 {
		r.Threshold = d.Threshold
	}
	if r.PeerLimit == 0 {
		r.PeerLimit = d.PeerLimit
	}
	if r.AnswerLimit == 0 {
		r.AnswerLimit = d.AnswerLimit
	}
	if r.Concurrency == 0 {
		r.Concurrency = d.Concurrency
	}

	if result.Webhook.URL == "" {
		result.Webhook.URL = defaults.Webhook.URL
	}
	if result.Webhook.TimeoutSeconds == 0 {
		result.Webhook.TimeoutSeconds = defaults.Webhook.TimeoutSeconds
	}
	if result.Fetch.BrowserTimeoutSeconds == 0 {
		result.Fetch.BrowserTimeoutSeconds = defaults.Fetch.BrowserTimeoutSeconds
	}
	if result.Template.Path == "" {
		result.Template.Path = defaults.Template.Path
	}
	if len(result.Scoring.Categories) == 0 {
		result.Scoring = defaults.Scoring
	}

	return result
}

// Load reads an optional config file, fills defaults, applies the
// environment and validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Default())
	merged.ApplyEnv()
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Policy builds the configured recommendation similarity policy
func (c *Config) Policy() (recommendation.SimilarityPolicy, error) {
	return recommendation.NewPolicy(c.Recommendations.Policy, c.Recommendations.Threshold)
}

// WebhookTimeout returns the webhook timeout as a duration
func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.Webhook.TimeoutSeconds) * time.Second
}

// BrowserTimeout returns the headless browser timeout as a duration
func (c *Config) BrowserTimeout() time.Duration {
	return time.Duration(c.Fetch.BrowserTimeoutSeconds) * time.Second
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
