// Package config persists user preferences under the platform config dir.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Provider names accepted in configuration.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds the user's persistent configuration preferences.
type Config struct {
	Provider string `json:"provider,omitempty"` // anthropic or openai
	APIKey   string `json:"api_key,omitempty"`  // API key for the selected provider
	Model    string `json:"model,omitempty"`    // model name
	BaseURL  string `json:"base_url,omitempty"` // optional API base URL override

	// Run defaults, applied when the CLI flags are left unset.
	MaxNoImprovement  int    `json:"max_no_improvement,omitempty"`
	ContinueOnSuccess *bool  `json:"continue_on_success,omitempty"`
	GenerateTimeout   string `json:"generate_timeout,omitempty"` // Go duration string

	AutoIndex bool `json:"auto_index"` // whether to index projects on startup
}

// GenerateTimeoutDuration parses the configured timeout. Zero means unset.
func (c *Config) GenerateTimeoutDuration() time.Duration {
	if c.GenerateTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.GenerateTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a configuration manager rooted at the user config dir.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "wisdom")}, nil
}

// NewManagerAt creates a manager rooted at an explicit directory, for tests.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file carries an API key, so keep it owner-only.
	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}
