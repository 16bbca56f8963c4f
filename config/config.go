package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultRosterTTL is used when roster_cache_ttl_minutes is unset.
const defaultRosterTTL = 10 * time.Minute

// Config represents the application configuration
type Config struct {
	DefaultFormat string `yaml:"default_format,omitempty"` // table or json

	// Profile sources. The CLI uses the fixture file; a DSN switches
	// to the Postgres profile store.
	ProfileFile string `yaml:"profile_file,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`

	// Optional Redis roster cache in front of the GitHub team API.
	RedisAddr             string `yaml:"redis_addr,omitempty"`
	RosterCacheTTLMinutes int    `yaml:"roster_cache_ttl_minutes,omitempty"`

	// Keyword matching is on when an API key is present; set to false
	// to force it off.
	KeywordMatching *bool `yaml:"keyword_matching,omitempty"`

	// Decision log location; empty means the default cache path.
	DecisionLog string `yaml:"decision_log,omitempty"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".gitpulse"
	}
	return filepath.Join(configDir, "gitpulse")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".gitpulse.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from the XDG config directory, then
// merges any local .gitpulse.yaml on top (local values take precedence).
func Load() (*Config, error) {
	cfg := &Config{
		DefaultFormat: "table",
	}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	}
	if local.ProfileFile != "" {
		result.ProfileFile = local.ProfileFile
	}
	if local.PostgresDSN != "" {
		result.PostgresDSN = local.PostgresDSN
	}
	if local.RedisAddr != "" {
		result.RedisAddr = local.RedisAddr
	}
	if local.RosterCacheTTLMinutes != 0 {
		result.RosterCacheTTLMinutes = local.RosterCacheTTLMinutes
	}
	if local.KeywordMatching != nil {
		result.KeywordMatching = local.KeywordMatching
	}
	if local.DecisionLog != "" {
		result.DecisionLog = local.DecisionLog
	}

	return &result
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Following 12-factor app best practices, tokens are only read from the environment.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// GetOracleAPIKey returns the keyword oracle key from the environment.
func (c *Config) GetOracleAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// KeywordMatchingEnabled reports whether the keyword oracle should be
// used: explicitly configured off wins, otherwise key presence decides.
func (c *Config) KeywordMatchingEnabled() bool {
	if c.KeywordMatching != nil {
		return *c.KeywordMatching
	}
	return c.GetOracleAPIKey() != ""
}

// RosterCacheTTL returns the configured roster cache TTL.
func (c *Config) RosterCacheTTL() time.Duration {
	if c.RosterCacheTTLMinutes > 0 {
		return time.Duration(c.RosterCacheTTLMinutes) * time.Minute
	}
	return defaultRosterTTL
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# gitpulse configuration file

# Output format: table or json
default_format: table

# Profile fixture file used by 'gitpulse evaluate' (optional)
# profile_file: profiles.yaml

# Read profiles from the profile service database instead (optional)
# postgres_dsn: postgres://gitpulse@localhost/gitpulse

# Cache team rosters in Redis (optional)
# redis_addr: localhost:6379
# roster_cache_ttl_minutes: 10

# Tokens come from the environment: GITHUB_TOKEN, ANTHROPIC_API_KEY
`
}
