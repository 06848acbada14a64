// Package config implements configuration management for the filter panel.
// It handles profile loading, theme management, and validation of the
// connection and retry settings each profile carries.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/filter-panel/panel/internal/interfaces"
)

// Config represents the complete configuration file structure
type Config struct {
	Profiles map[string]interfaces.Profile `yaml:"profiles"`
	Themes   map[string]interfaces.Theme   `yaml:"themes"`
}

// Manager implements the ConfigManager interface
type Manager struct {
	configPath   string
	cachedConfig *Config
}

// NewManager creates a new configuration manager with OS-appropriate paths
func NewManager() (*Manager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to determine configuration path: %w", err)
	}

	manager := &Manager{
		configPath: configPath,
	}

	// Ensure configuration directory exists with appropriate permissions
	if err := manager.ensureConfigDirectory(); err != nil {
		return nil, fmt.Errorf("failed to create configuration directory: %w", err)
	}

	return manager, nil
}

// getConfigPath determines the OS-appropriate configuration file path
func getConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	var configDir string
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		configDir = filepath.Join(xdgConfigHome, "filter-panel")
	} else {
		configDir = filepath.Join(homeDir, ".config", "filter-panel")
	}

	return filepath.Join(configDir, "profiles.yaml"), nil
}

// ensureConfigDirectory creates the configuration directory with secure permissions
func (m *Manager) ensureConfigDirectory() error {
	configDir := filepath.Dir(m.configPath)

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	return nil
}

// loadConfig reads and parses the configuration file, creating defaults if necessary
func (m *Manager) loadConfig() (*Config, error) {
	if m.cachedConfig != nil {
		return m.cachedConfig, nil
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		config := m.createDefaultConfig()
		if err := m.saveConfig(config); err != nil {
			return nil, fmt.Errorf("failed to create default configuration: %w", err)
		}
		m.cachedConfig = config
		return config, nil
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	m.cachedConfig = &config
	return &config, nil
}

// saveConfig writes the configuration to disk
func (m *Manager) saveConfig(config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// DefaultRetryConfig returns the stock backoff parameters: 1s base, 10s
// ceiling, 5 attempts
func DefaultRetryConfig() interfaces.RetryConfig {
	return interfaces.RetryConfig{
		BaseDelay:    time.Second,
		DelayCeiling: 10 * time.Second,
		MaxAttempts:  5,
	}
}

// DefaultLogRetention is the access-log ring size used when a profile does
// not set one
const DefaultLogRetention = 500

// createDefaultConfig generates a sensible default configuration pointing at
// a proxy on localhost
func (m *Manager) createDefaultConfig() *Config {
	return &Config{
		Profiles: map[string]interfaces.Profile{
			"default": {
				Name:         "default",
				ChannelURL:   "ws://localhost:8888/ws",
				RulesURL:     "http://localhost:8888",
				Theme:        "github",
				Retry:        DefaultRetryConfig(),
				LogRetention: DefaultLogRetention,
			},
		},
		Themes: map[string]interfaces.Theme{
			"github": {
				Name:    "github",
				Success: "#28a745",
				Error:   "#dc3545",
				Warning: "#ffc107",
				Info:    "#17a2b8",
			},
			"monokai": {
				Name:    "monokai",
				Success: "#a6e22e",
				Error:   "#f92672",
				Warning: "#fd971f",
				Info:    "#66d9ef",
			},
		},
	}
}

// LoadProfile retrieves a profile by name from the configuration file
func (m *Manager) LoadProfile(name string) (*interfaces.Profile, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	profile, exists := config.Profiles[name]
	if !exists {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}

	// Set the name field to ensure consistency
	profile.Name = name

	applyProfileDefaults(&profile)

	if err := m.ValidateProfile(&profile); err != nil {
		return nil, fmt.Errorf("profile '%s' is invalid: %w", name, err)
	}

	return &profile, nil
}

// applyProfileDefaults fills zero-valued retry and retention fields so older
// configuration files keep working when new fields are added
func applyProfileDefaults(profile *interfaces.Profile) {
	defaults := DefaultRetryConfig()
	if profile.Retry.BaseDelay <= 0 {
		profile.Retry.BaseDelay = defaults.BaseDelay
	}
	if profile.Retry.DelayCeiling <= 0 {
		profile.Retry.DelayCeiling = defaults.DelayCeiling
	}
	if profile.Retry.MaxAttempts <= 0 {
		profile.Retry.MaxAttempts = defaults.MaxAttempts
	}
	if profile.LogRetention == 0 {
		profile.LogRetention = DefaultLogRetention
	}
	if profile.Theme == "" {
		profile.Theme = "github"
	}
}

// SaveProfile persists a profile to the configuration file
func (m *Manager) SaveProfile(profile *interfaces.Profile) error {
	if err := m.ValidateProfile(profile); err != nil {
		return fmt.Errorf("cannot save invalid profile: %w", err)
	}

	config, err := m.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if config.Profiles == nil {
		config.Profiles = make(map[string]interfaces.Profile)
	}

	config.Profiles[profile.Name] = *profile

	if err := m.saveConfig(config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	m.cachedConfig = config

	return nil
}

// ListProfiles returns all available profile names
func (m *Manager) ListProfiles() ([]string, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var profileNames []string
	for name := range config.Profiles {
		profileNames = append(profileNames, name)
	}

	return profileNames, nil
}

// LoadTheme retrieves theme configuration by name
func (m *Manager) LoadTheme(name string) (*interfaces.Theme, error) {
	config, err := m.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	theme, exists := config.Themes[name]
	if !exists {
		return nil, fmt.Errorf("theme '%s' not found", name)
	}

	theme.Name = name

	return &theme, nil
}

// ValidateProfile ensures profile has all required fields
func (m *Manager) ValidateProfile(profile *interfaces.Profile) error {
	if profile == nil {
		return fmt.Errorf("profile cannot be nil")
	}

	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	if err := validateChannelURL(profile.ChannelURL); err != nil {
		return fmt.Errorf("invalid channel URL: %w", err)
	}

	if err := validateRulesURL(profile.RulesURL); err != nil {
		return fmt.Errorf("invalid rules URL: %w", err)
	}

	if profile.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive")
	}
	if profile.Retry.DelayCeiling < profile.Retry.BaseDelay {
		return fmt.Errorf("retry delay ceiling must be at least the base delay")
	}
	if profile.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1")
	}

	if profile.LogRetention < 0 {
		return fmt.Errorf("log retention cannot be negative")
	}

	return nil
}

// validateChannelURL checks the realtime channel endpoint address
func validateChannelURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("scheme must be ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// validateRulesURL checks the rule-submission endpoint base address
func validateRulesURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// GetConfigPath returns the path to the configuration file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// InvalidateCache clears the cached configuration, forcing a reload on next access
func (m *Manager) InvalidateCache() {
	m.cachedConfig = nil
}

// DeleteProfile removes a profile from the configuration
func (m *Manager) DeleteProfile(name string) error {
	config, err := m.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, exists := config.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}

	if name == "default" {
		return fmt.Errorf("cannot delete the default profile")
	}

	delete(config.Profiles, name)

	if err := m.saveConfig(config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	m.cachedConfig = config
	return nil
}
