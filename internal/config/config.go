// Package config loads and validates zentest's project configuration:
// provider/model selection, environments, browser options, and the
// ambient tuning knobs for healing and history.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the complete zentest configuration.
type Config struct {
	BaseURL      string               `yaml:"baseUrl"`
	Provider     string               `yaml:"provider"` // anthropic | openai | openrouter | mock
	APIKey       string               `yaml:"apiKey,omitempty"`
	Models       ModelsConfig         `yaml:"models"`
	MaxSteps     int                  `yaml:"maxSteps"`
	Viewport     Viewport             `yaml:"viewport"`
	Headless     string               `yaml:"headless"` // "auto" | "true" | "false"
	RetryNoResponse int               `yaml:"retryNoResponse"`
	Healing      HealingConfig        `yaml:"healing"`
	HistoryDB    string               `yaml:"historyDB"`
	Watch        bool                 `yaml:"watch"`
	Envs         map[string]EnvConfig `yaml:"environments,omitempty"`
	Current      string               `yaml:"currentEnv,omitempty"`
}

// ModelsConfig selects a model identifier per role; a role left blank
// falls back to the provider's own default.
type ModelsConfig struct {
	AgenticModel string `yaml:"agenticModel,omitempty"`
	BuilderModel string `yaml:"builderModel,omitempty"`
	HealerModel  string `yaml:"healerModel,omitempty"`
}

// Viewport is the browser window size the AgenticDriver navigates in.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// HealingConfig tunes the HealingOrchestrator's rewrite tier.
type HealingConfig struct {
	MaxAttempts int `yaml:"maxAttempts"`
}

// EnvConfig overrides BaseURL (and carries auth/headers/cookies) for a
// named environment, selected via Current or `run --env`.
type EnvConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Cookies []Cookie          `yaml:"cookies,omitempty"`
}

// Cookie is a browser cookie applied before navigation.
type Cookie struct {
	Name     string `yaml:"name"`
	Value    string `yaml:"value"`
	Domain   string `yaml:"domain,omitempty"`
	Path     string `yaml:"path,omitempty"`
	Secure   bool   `yaml:"secure,omitempty"`
	HTTPOnly bool   `yaml:"httpOnly,omitempty"`
}

// DefaultConfig returns a config with the defaults named in spec §6.
func DefaultConfig() *Config {
	return &Config{
		Provider: "anthropic",
		Models: ModelsConfig{
			AgenticModel: "claude-sonnet-4-5",
			BuilderModel: "claude-sonnet-4-5",
			HealerModel:  "claude-sonnet-4-5",
		},
		MaxSteps: 50,
		Viewport: Viewport{Width: 1280, Height: 720},
		Headless: "auto",
		RetryNoResponse: 2,
		Healing:  HealingConfig{MaxAttempts: 3},
		HistoryDB: ".zentest/history.db",
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "openrouter", "mock":
	case "":
		return NewValidationError("provider is required")
	default:
		return NewValidationError("unknown provider: " + c.Provider)
	}

	if c.Provider != "mock" && c.APIKey == "" && !hasProviderEnvKey(c.Provider) {
		return NewValidationError("apiKey is required for provider: " + c.Provider)
	}

	if c.BaseURL == "" && len(c.Envs) == 0 {
		return NewValidationError("baseUrl is required when no environments are defined")
	}

	if c.Current != "" {
		if _, ok := c.Envs[c.Current]; !ok {
			return NewValidationError("currentEnv references non-existent environment: " + c.Current)
		}
	}

	if c.MaxSteps < 0 {
		return NewValidationError("maxSteps must not be negative")
	}

	switch c.Headless {
	case "auto", "true", "false", "":
	default:
		return NewValidationError("headless must be one of auto|true|false, got: " + c.Headless)
	}

	return nil
}

func hasProviderEnvKey(provider string) bool {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY") != ""
	case "openai":
		return os.Getenv("OPENAI_API_KEY") != ""
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY") != ""
	}
	return false
}

// EffectiveBaseURL resolves the URL tests should navigate to, honoring
// the selected environment override.
func (c *Config) EffectiveBaseURL() string {
	if env := c.GetCurrentEnv(); env != nil && env.URL != "" {
		return env.URL
	}
	return c.BaseURL
}

// GetCurrentEnv returns the configuration for the current environment,
// or nil if none is selected.
func (c *Config) GetCurrentEnv() *EnvConfig {
	if c.Current == "" {
		return nil
	}
	env, ok := c.Envs[c.Current]
	if !ok {
		return nil
	}
	return &env
}

// ResolveHeadless turns the "auto" setting into a concrete bool, per
// spec §6: headless iff not a TTY or CI is set.
func (c *Config) ResolveHeadless(stdoutIsTTY bool) bool {
	switch c.Headless {
	case "true":
		return true
	case "false":
		return false
	default:
		if os.Getenv("CI") != "" {
			return true
		}
		return !stdoutIsTTY
	}
}

// ValidationError reports a configuration that failed Validate.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Message
}

// NewValidationError constructs a ValidationError.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// parseBoolEnv is a small helper used by loader overrides for the watch flag.
func parseBoolEnv(raw string) (bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q: %w", raw, err)
	}
	return b, nil
}
