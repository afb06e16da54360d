// Package config handles configuration loading and management for maestro.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel match modes.
const (
	SentinelMatchPrefix   = "prefix"
	SentinelMatchAnywhere = "anywhere"
)

// Credential store backends.
const (
	BackendFile    = "file"
	BackendKeyring = "keyring"
)

// DefaultSentinel is the marker the orchestrator uses to report completion.
const DefaultSentinel = "The task is complete:"

// Config holds all configuration for maestro.
type Config struct {
	Anthropic   AnthropicConfig   `mapstructure:"anthropic"`
	Models      ModelsConfig      `mapstructure:"models"`
	Loop        LoopConfig        `mapstructure:"loop"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Export      ExportConfig      `mapstructure:"export"`
	History     HistoryConfig     `mapstructure:"history"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey            string `mapstructure:"api_key"`
	UseBedrock        bool   `mapstructure:"use_bedrock"`
	AWSRegion         string `mapstructure:"aws_region"`
	AWSProfile        string `mapstructure:"aws_profile"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// ModelConfig holds the model selection and token budget for one role.
type ModelConfig struct {
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// ModelsConfig holds per-role model settings.
type ModelsConfig struct {
	Planning  ModelConfig `mapstructure:"planning"`
	Executing ModelConfig `mapstructure:"executing"`
	Refining  ModelConfig `mapstructure:"refining"`
}

// LoopConfig holds run loop settings.
type LoopConfig struct {
	// MaxRounds caps the number of planning/execution rounds.
	MaxRounds int `mapstructure:"max_rounds"`
	// Sentinel is the completion marker the orchestrator is told to emit.
	Sentinel string `mapstructure:"sentinel"`
	// SentinelMatch is "prefix" or "anywhere".
	SentinelMatch string `mapstructure:"sentinel_match"`
	// CallTimeout bounds each individual model call.
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// CredentialsConfig selects where the API key is persisted.
type CredentialsConfig struct {
	Backend string `mapstructure:"backend"`
}

// ExportConfig controls transcript export after a run.
type ExportConfig struct {
	// Dir is where transcripts are written. Empty disables export.
	Dir string `mapstructure:"dir"`
	// HTML also writes an HTML rendering next to the Markdown file.
	HTML bool `mapstructure:"html"`
}

// HistoryConfig controls the local transcript archive.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

// LoggingConfig controls the debug log file.
type LoggingConfig struct {
	Debug     bool   `mapstructure:"debug"`
	DebugFile string `mapstructure:"debug_file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (MAESTRO_LOOP_MAX_ROUNDS, ...)
// 2. Project config (.maestro.yaml in current directory or parent)
// 3. User config (~/.config/maestro/config.yaml)
// 4. Built-in defaults
//
// ANTHROPIC_API_KEY is deliberately not bound here; credential resolution
// owns the environment fallback.
func Load() (*Config, error) {
	v := newViper()

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MAESTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("logging.debug", "MAESTRO_LOGGING_DEBUG", "MAESTRO_DEBUG")
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Loop.Sentinel) == "" {
		return fmt.Errorf("loop.sentinel must not be empty")
	}
	switch c.Loop.SentinelMatch {
	case SentinelMatchPrefix, SentinelMatchAnywhere:
	default:
		return fmt.Errorf("loop.sentinel_match must be %q or %q, got %q", SentinelMatchPrefix, SentinelMatchAnywhere, c.Loop.SentinelMatch)
	}
	switch c.Credentials.Backend {
	case BackendFile, BackendKeyring:
	default:
		return fmt.Errorf("credentials.backend must be %q or %q, got %q", BackendFile, BackendKeyring, c.Credentials.Backend)
	}
	for name, m := range map[string]ModelConfig{
		"planning":  c.Models.Planning,
		"executing": c.Models.Executing,
		"refining":  c.Models.Refining,
	} {
		if m.Model == "" {
			return fmt.Errorf("models.%s.model must not be empty", name)
		}
		if m.MaxTokens <= 0 {
			return fmt.Errorf("models.%s.max_tokens must be positive, got %d", name, m.MaxTokens)
		}
	}
	return nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveToPath(cfg, GetUserConfigPath())
}

// SaveToPath writes the configuration to path, creating parent directories.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("anthropic.requests_per_minute", cfg.Anthropic.RequestsPerMinute)
	v.Set("models.planning.model", cfg.Models.Planning.Model)
	v.Set("models.planning.max_tokens", cfg.Models.Planning.MaxTokens)
	v.Set("models.executing.model", cfg.Models.Executing.Model)
	v.Set("models.executing.max_tokens", cfg.Models.Executing.MaxTokens)
	v.Set("models.refining.model", cfg.Models.Refining.Model)
	v.Set("models.refining.max_tokens", cfg.Models.Refining.MaxTokens)
	v.Set("loop.max_rounds", cfg.Loop.MaxRounds)
	v.Set("loop.sentinel", cfg.Loop.Sentinel)
	v.Set("loop.sentinel_match", cfg.Loop.SentinelMatch)
	v.Set("loop.call_timeout", cfg.Loop.CallTimeout.String())
	v.Set("credentials.backend", cfg.Credentials.Backend)
	v.Set("export.dir", cfg.Export.Dir)
	v.Set("export.html", cfg.Export.HTML)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.db_path", cfg.History.DBPath)
	v.Set("logging.debug", cfg.Logging.Debug)
	v.Set("logging.debug_file", cfg.Logging.DebugFile)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	// The file may hold an API key
	return os.Chmod(path, 0600)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// StateDir returns the XDG state directory for maestro.
func StateDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", ".local", "state", "maestro")
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "maestro")
}

// DebugLogPath returns the debug log path, honoring logging.debug_file.
func (c *Config) DebugLogPath() string {
	if c.Logging.DebugFile != "" {
		return c.Logging.DebugFile
	}
	return filepath.Join(StateDir(), "logs", "maestro-debug.log")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("anthropic.api_key", d.Anthropic.APIKey)
	v.SetDefault("anthropic.use_bedrock", d.Anthropic.UseBedrock)
	v.SetDefault("anthropic.aws_region", d.Anthropic.AWSRegion)
	v.SetDefault("anthropic.aws_profile", d.Anthropic.AWSProfile)
	v.SetDefault("anthropic.requests_per_minute", d.Anthropic.RequestsPerMinute)

	v.SetDefault("models.planning.model", d.Models.Planning.Model)
	v.SetDefault("models.planning.max_tokens", d.Models.Planning.MaxTokens)
	v.SetDefault("models.executing.model", d.Models.Executing.Model)
	v.SetDefault("models.executing.max_tokens", d.Models.Executing.MaxTokens)
	v.SetDefault("models.refining.model", d.Models.Refining.Model)
	v.SetDefault("models.refining.max_tokens", d.Models.Refining.MaxTokens)

	v.SetDefault("loop.max_rounds", d.Loop.MaxRounds)
	v.SetDefault("loop.sentinel", d.Loop.Sentinel)
	v.SetDefault("loop.sentinel_match", d.Loop.SentinelMatch)
	v.SetDefault("loop.call_timeout", d.Loop.CallTimeout.String())

	v.SetDefault("credentials.backend", d.Credentials.Backend)

	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.html", d.Export.HTML)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.db_path", d.History.DBPath)

	v.SetDefault("logging.debug", d.Logging.Debug)
	v.SetDefault("logging.debug_file", d.Logging.DebugFile)
}

// getUserConfigDir returns the XDG config directory for maestro.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "maestro")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "maestro")
	}
	return filepath.Join(home, ".config", "maestro")
}

// findProjectConfig searches for .maestro.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".maestro.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Models: ModelsConfig{
			Planning:  ModelConfig{Model: "claude-opus-4-5-20251101", MaxTokens: 2048},
			Executing: ModelConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 2048},
			Refining:  ModelConfig{Model: "claude-opus-4-5-20251101", MaxTokens: 4096},
		},
		Loop: LoopConfig{
			MaxRounds:     25,
			Sentinel:      DefaultSentinel,
			SentinelMatch: SentinelMatchPrefix,
			CallTimeout:   5 * time.Minute,
		},
		Credentials: CredentialsConfig{
			Backend: BackendFile,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}
