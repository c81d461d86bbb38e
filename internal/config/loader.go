package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName  = "config.yaml"
	ConfigDirName   = ".zentest"
	GlobalConfigDir = ".config/zentest"
)

// Loader discovers and loads zentest's config.yaml, searching upward from
// a starting directory, then a global fallback, then applying ZENTEST_*
// environment overrides.
type Loader struct {
	startDir string
}

// NewLoader creates a Loader rooted at startDir, or the working directory
// if startDir is empty.
func NewLoader(startDir string) *Loader {
	if startDir == "" {
		if wd, err := os.Getwd(); err == nil {
			startDir = wd
		} else {
			startDir = "."
		}
	}
	return &Loader{startDir: startDir}
}

// Load finds, parses, overrides, and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	configPath, err := l.findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	config, err := l.loadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (l *Loader) findConfigFile() (string, error) {
	dir := l.startDir
	for {
		configPath := filepath.Join(dir, ConfigDirName, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		globalConfig := filepath.Join(homeDir, GlobalConfigDir, ConfigFileName)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched upward from %s)", l.startDir)
}

func (l *Loader) loadFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies ZENTEST_* environment variables, falling back
// to each provider's own standard API key variable when unset.
func (l *Loader) applyEnvOverrides(config *Config) error {
	if apiKey := os.Getenv("ZENTEST_API_KEY"); apiKey != "" {
		config.APIKey = apiKey
	} else if config.APIKey == "" {
		config.APIKey = providerEnvKey(config.Provider)
	}

	if provider := os.Getenv("ZENTEST_PROVIDER"); provider != "" {
		config.Provider = provider
	}
	if baseURL := os.Getenv("ZENTEST_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	if env := os.Getenv("ZENTEST_ENV"); env != "" {
		config.Current = env
	}
	if headless := os.Getenv("ZENTEST_HEADLESS"); headless != "" {
		config.Headless = headless
	}
	if historyDB := os.Getenv("ZENTEST_HISTORY_DB"); historyDB != "" {
		config.HistoryDB = historyDB
	}
	if watch := os.Getenv("ZENTEST_WATCH"); watch != "" {
		b, err := parseBoolEnv(watch)
		if err != nil {
			return fmt.Errorf("ZENTEST_WATCH: %w", err)
		}
		config.Watch = b
	}

	return nil
}

func providerEnvKey(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}

// Save writes config as YAML to configPath, creating parent directories
// as needed.
func (l *Loader) Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path where a new config file should be created.
func (l *Loader) GetConfigPath() string {
	return filepath.Join(l.startDir, ConfigDirName, ConfigFileName)
}

// IsInitialized reports whether a config file exists in the project
// hierarchy or globally.
func (l *Loader) IsInitialized() bool {
	_, err := l.findConfigFile()
	return err == nil
}

// GetProjectRoot returns the directory containing the discovered .zentest
// folder.
func (l *Loader) GetProjectRoot() (string, error) {
	configPath, err := l.findConfigFile()
	if err != nil {
		return "", err
	}
	return filepath.Dir(filepath.Dir(configPath)), nil
}
