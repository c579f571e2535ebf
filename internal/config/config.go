// Package config provides configuration loading and validation for the CLI.
//
// Values come from three layers, highest precedence first: environment variables
// (a .env file is loaded into the environment by main), an optional JSON config file,
// and built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"

	"github.com/jonathan/resume-pivot/internal/llm"
)

// DefaultEnrichConcurrency bounds parallel job-description generation
const DefaultEnrichConcurrency = 4

// Config represents the CLI configuration.
// All fields are optional in each layer; Validate checks the merged result.
type Config struct {
	APIKey      string `json:"api_key,omitempty" envconfig:"GEMINI_API_KEY" validate:"required"`
	DatabaseURL string `json:"database_url,omitempty" envconfig:"DATABASE_URL" validate:"required,url"`
	UserID      string `json:"user_id,omitempty" envconfig:"RESUME_USER"`

	// Logging
	LogJSON  bool `json:"log_json,omitempty" envconfig:"LOG_JSON"`
	LogDebug bool `json:"log_debug,omitempty" envconfig:"LOG_DEBUG"`

	// Model names per tier; empty keeps the built-in model
	ModelLite     string `json:"model_lite,omitempty" envconfig:"MODEL_LITE"`
	ModelStandard string `json:"model_standard,omitempty" envconfig:"MODEL_STANDARD"`
	ModelAdvanced string `json:"model_advanced,omitempty" envconfig:"MODEL_ADVANCED"`

	EnrichConcurrency int `json:"enrich_concurrency,omitempty" envconfig:"ENRICH_CONCURRENCY" validate:"min=0,max=16"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{EnrichConcurrency: DefaultEnrichConcurrency}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
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
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// Load merges the environment over the optional config file at path and the defaults
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}

	merged := *env
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = merged.MergeWithDefaults(*file)
	}
	merged = merged.MergeWithDefaults(Defaults())
	return &merged, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Boolean switches are enabled when either side enables them.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	for _, f := range []struct{ dst, src *string }{
		{&result.APIKey, &defaults.APIKey},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.UserID, &defaults.UserID},
		{&result.ModelLite, &defaults.ModelLite},
		{&result.ModelStandard, &defaults.ModelStandard},
		{&result.ModelAdvanced, &defaults.ModelAdvanced},
	} {
		if *f.dst == "" {
			*f.dst = *f.src
		}
	}

	if result.EnrichConcurrency == 0 {
		result.EnrichConcurrency = defaults.EnrichConcurrency
	}
	result.LogJSON = result.LogJSON || defaults.LogJSON
	result.LogDebug = result.LogDebug || defaults.LogDebug

	return result
}

// Validate checks everything the model-backed commands need
func (c *Config) Validate() error {
	c.trim()
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// ValidateStorage checks only what the storage-only commands need
func (c *Config) ValidateStorage() error {
	c.trim()
	if err := validator.New().StructPartial(c, "DatabaseURL"); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// trim drops surrounding whitespace from the secrets and identifiers so that blank values
// fail validation
func (c *Config) trim() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.UserID = strings.TrimSpace(c.UserID)
}

// LLMConfig returns the model configuration with any per-tier overrides applied
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	cfg = cfg.WithModel(llm.TierLite, c.ModelLite)
	cfg = cfg.WithModel(llm.TierStandard, c.ModelStandard)
	return cfg.WithModel(llm.TierAdvanced, c.ModelAdvanced)
}
