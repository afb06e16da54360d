package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/maestro/internal/config"
)

const apiKeyKey = "anthropic.api_key"

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify maestro configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

The API key is always shown masked. Setting anthropic.api_key stores it
in the backend selected by credentials.backend (file or keyring).

Configuration is stored at ~/.config/maestro/config.yaml
Project-specific overrides can be placed in .maestro.yaml`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		store, err := config.NewCredentialStore(cfg)
		if err != nil {
			return err
		}

		switch len(args) {
		case 0:
			return displayAllConfig(os.Stdout, cfg, store)
		case 1:
			value, err := getConfigValue(cfg, store, args[0])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		default:
			return setConfigKey(cfg, store, args[0], args[1])
		}
	},
}

// configKeys lists every displayable key in display order.
var configKeys = []string{
	apiKeyKey,
	"anthropic.use_bedrock",
	"anthropic.aws_region",
	"anthropic.aws_profile",
	"anthropic.requests_per_minute",
	"models.planning.model",
	"models.planning.max_tokens",
	"models.executing.model",
	"models.executing.max_tokens",
	"models.refining.model",
	"models.refining.max_tokens",
	"loop.max_rounds",
	"loop.sentinel",
	"loop.sentinel_match",
	"loop.call_timeout",
	"credentials.backend",
	"export.dir",
	"export.html",
	"history.enabled",
	"history.db_path",
	"logging.debug",
	"logging.debug_file",
}

// displayAllConfig prints all configuration values.
func displayAllConfig(out io.Writer, cfg *config.Config, store *config.EnvFallbackStore) error {
	for _, key := range configKeys {
		value, err := getConfigValue(cfg, store, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", key, value)
	}
	return nil
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, store *config.EnvFallbackStore, key, value string) error {
	if strings.ToLower(key) == apiKeyKey {
		if err := config.ValidateAPIKey(value); err != nil {
			return err
		}
		if err := store.Set(value); err != nil {
			return fmt.Errorf("save API key: %w", err)
		}
		fmt.Printf("Set %s = %s\n", apiKeyKey, config.MaskAPIKey(value))
		return nil
	}

	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, store *config.EnvFallbackStore, key string) (string, error) {
	switch strings.ToLower(key) {
	case apiKeyKey:
		apiKey, source, err := store.Source()
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		if source == config.KeySourceNone {
			return config.MaskAPIKey(""), nil
		}
		return fmt.Sprintf("%s (from %s)", config.MaskAPIKey(apiKey), source), nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "anthropic.requests_per_minute":
		return strconv.Itoa(cfg.Anthropic.RequestsPerMinute), nil
	case "models.planning.model":
		return cfg.Models.Planning.Model, nil
	case "models.planning.max_tokens":
		return strconv.FormatInt(cfg.Models.Planning.MaxTokens, 10), nil
	case "models.executing.model":
		return cfg.Models.Executing.Model, nil
	case "models.executing.max_tokens":
		return strconv.FormatInt(cfg.Models.Executing.MaxTokens, 10), nil
	case "models.refining.model":
		return cfg.Models.Refining.Model, nil
	case "models.refining.max_tokens":
		return strconv.FormatInt(cfg.Models.Refining.MaxTokens, 10), nil
	case "loop.max_rounds":
		return strconv.Itoa(cfg.Loop.MaxRounds), nil
	case "loop.sentinel":
		return cfg.Loop.Sentinel, nil
	case "loop.sentinel_match":
		return cfg.Loop.SentinelMatch, nil
	case "loop.call_timeout":
		return cfg.Loop.CallTimeout.String(), nil
	case "credentials.backend":
		return cfg.Credentials.Backend, nil
	case "export.dir":
		return cfg.Export.Dir, nil
	case "export.html":
		return strconv.FormatBool(cfg.Export.HTML), nil
	case "history.enabled":
		return strconv.FormatBool(cfg.History.Enabled), nil
	case "history.db_path":
		return historyDBPath(cfg), nil
	case "logging.debug":
		return strconv.FormatBool(cfg.Logging.Debug), nil
	case "logging.debug_file":
		return cfg.DebugLogPath(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "anthropic.use_bedrock":
		cfg.Anthropic.UseBedrock, err = parseBool(key, value)
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "anthropic.requests_per_minute":
		cfg.Anthropic.RequestsPerMinute, err = parseInt(key, value)
	case "models.planning.model":
		cfg.Models.Planning.Model = value
	case "models.planning.max_tokens":
		cfg.Models.Planning.MaxTokens, err = parseInt64(key, value)
	case "models.executing.model":
		cfg.Models.Executing.Model = value
	case "models.executing.max_tokens":
		cfg.Models.Executing.MaxTokens, err = parseInt64(key, value)
	case "models.refining.model":
		cfg.Models.Refining.Model = value
	case "models.refining.max_tokens":
		cfg.Models.Refining.MaxTokens, err = parseInt64(key, value)
	case "loop.max_rounds":
		cfg.Loop.MaxRounds, err = parseInt(key, value)
	case "loop.sentinel":
		cfg.Loop.Sentinel = value
	case "loop.sentinel_match":
		cfg.Loop.SentinelMatch = strings.ToLower(value)
	case "loop.call_timeout":
		var d time.Duration
		d, err = time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		cfg.Loop.CallTimeout = d
	case "credentials.backend":
		cfg.Credentials.Backend = strings.ToLower(value)
	case "export.dir":
		cfg.Export.Dir = value
	case "export.html":
		cfg.Export.HTML, err = parseBool(key, value)
	case "history.enabled":
		cfg.History.Enabled, err = parseBool(key, value)
	case "history.db_path":
		cfg.History.DBPath = value
	case "logging.debug":
		cfg.Logging.Debug, err = parseBool(key, value)
	case "logging.debug_file":
		cfg.Logging.DebugFile = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return err
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

func parseInt64(key, value string) (int64, error) {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}
