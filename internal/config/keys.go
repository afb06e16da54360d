package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAPIKey is returned when a credential is required but none was given.
var ErrNoAPIKey = errors.New("no Anthropic API key configured")

const (
	apiKeyPrefix    = "sk-ant-"
	minAPIKeyLength = 20
	// maskedTail is how many trailing characters MaskAPIKey leaves readable.
	maskedTail = 4
)

// ValidateAPIKey rejects credentials that cannot be Anthropic keys before
// they are persisted. The key is not checked against the API.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return ErrNoAPIKey
	case strings.ContainsAny(key, " \t\r\n"):
		return errors.New("invalid API key: contains whitespace")
	case !strings.HasPrefix(key, apiKeyPrefix):
		return fmt.Errorf("invalid API key: expected %q prefix", apiKeyPrefix)
	case len(key) < minAPIKeyLength:
		return errors.New("invalid API key: too short")
	}
	return nil
}

// MaskAPIKey renders a credential for `maestro config` output: the prefix
// and the last four characters, nothing else.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= len(apiKeyPrefix)+2*maskedTail {
		return "***"
	}
	return key[:len(apiKeyPrefix)] + "..." + key[len(key)-maskedTail:]
}

// KeySource tells where a resolved credential came from.
type KeySource string

const (
	KeySourceStore KeySource = "credential_store"
	KeySourceEnv   KeySource = "environment"
	KeySourceNone  KeySource = "none"
)
