package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// Keyring coordinates for the stored API key.
const (
	KeyringService = "maestro"
	KeyringUser    = "anthropic-api-key"
)

// apiKeyField is the config key holding the credential in the file store.
const apiKeyField = "anthropic.api_key"

// EnvAPIKey is the environment variable consulted when no key is stored.
const EnvAPIKey = "ANTHROPIC_API_KEY"

// CredentialStore reads and persists the API credential.
// Get returns "" with a nil error when nothing is stored.
type CredentialStore interface {
	Get() (string, error)
	Set(key string) error
}

// FileCredentialStore keeps the key under anthropic.api_key in a YAML config file.
type FileCredentialStore struct {
	Path string
}

// NewFileCredentialStore returns a store backed by the user config file.
func NewFileCredentialStore() *FileCredentialStore {
	return &FileCredentialStore{Path: GetUserConfigPath()}
}

// Get returns the stored key, expanding ${VAR} references. Only the file is
// consulted: MAESTRO_* environment overrides are not a stored credential.
func (s *FileCredentialStore) Get() (string, error) {
	v, err := s.read()
	if err != nil || v == nil {
		return "", err
	}
	return strings.TrimSpace(expandEnv(v.GetString(apiKeyField))), nil
}

// Set writes key into the config file. Other keys in the file are written
// back as they were; defaults and environment overrides are never added.
func (s *FileCredentialStore) Set(key string) error {
	v, err := s.read()
	if err != nil {
		return err
	}
	if v == nil {
		if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		v = s.bare()
	}
	v.Set(apiKeyField, key)
	if err := v.WriteConfigAs(s.Path); err != nil {
		return fmt.Errorf("writing config %s: %w", s.Path, err)
	}
	return os.Chmod(s.Path, 0600)
}

// read loads the file into a viper instance without defaults or env binding.
// It returns nil when the file does not exist.
func (s *FileCredentialStore) read() (*viper.Viper, error) {
	if _, err := os.Stat(s.Path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	v := s.bare()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", s.Path, err)
	}
	return v, nil
}

func (s *FileCredentialStore) bare() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.Path)
	v.SetConfigType("yaml")
	return v
}

// KeyringCredentialStore keeps the key in the OS keychain.
type KeyringCredentialStore struct {
	Service string
	User    string
}

// NewKeyringCredentialStore returns a store using the default keyring coordinates.
func NewKeyringCredentialStore() *KeyringCredentialStore {
	return &KeyringCredentialStore{Service: KeyringService, User: KeyringUser}
}

// Get returns the key from the keychain, or "" if there is none.
func (s *KeyringCredentialStore) Get() (string, error) {
	key, err := keyring.Get(s.Service, s.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	return key, nil
}

// Set stores key in the keychain.
func (s *KeyringCredentialStore) Set(key string) error {
	if err := keyring.Set(s.Service, s.User, key); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// EnvFallbackStore wraps a store and falls back to an environment variable
// when the wrapped store holds nothing. Set always goes to the wrapped store.
type EnvFallbackStore struct {
	Store  CredentialStore
	EnvVar string
}

// Get returns the stored key, or the environment variable if none is stored.
func (s *EnvFallbackStore) Get() (string, error) {
	key, _, err := s.Source()
	return key, err
}

// Set persists key to the wrapped store.
func (s *EnvFallbackStore) Set(key string) error {
	return s.Store.Set(key)
}

// Source returns the key along with where it came from.
func (s *EnvFallbackStore) Source() (string, KeySource, error) {
	key, err := s.Store.Get()
	if err != nil {
		return "", KeySourceNone, err
	}
	if key != "" {
		return key, KeySourceStore, nil
	}
	envVar := s.EnvVar
	if envVar == "" {
		envVar = EnvAPIKey
	}
	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		return key, KeySourceEnv, nil
	}
	return "", KeySourceNone, nil
}

// NewCredentialStore builds the store selected by credentials.backend,
// with the ANTHROPIC_API_KEY fallback applied.
func NewCredentialStore(cfg *Config) (*EnvFallbackStore, error) {
	var inner CredentialStore
	switch cfg.Credentials.Backend {
	case BackendFile, "":
		inner = NewFileCredentialStore()
	case BackendKeyring:
		inner = NewKeyringCredentialStore()
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", cfg.Credentials.Backend)
	}
	return &EnvFallbackStore{Store: inner, EnvVar: EnvAPIKey}, nil
}
