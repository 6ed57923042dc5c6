// Package config loads lendflow settings from an optional YAML file and LENDFLOW_* environment variables.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "lendflow.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the resolved application configuration.
type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Store     StoreConfig     `mapstructure:"store"`
	Artifact  ArtifactConfig  `mapstructure:"artifact"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Security  SecurityConfig  `mapstructure:"security"`
}

type StoreConfig struct {
	Backend       string        `mapstructure:"backend"`
	Dir           string        `mapstructure:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
	Prefix        string        `mapstructure:"prefix"`
}

type ArtifactConfig struct {
	Dir     string `mapstructure:"dir"`
	MaskPAN bool   `mapstructure:"mask_pan"`
}

type AssistantConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type SecurityConfig struct {
	// EncryptionKey is a base64 encoded 32 byte AES key. Empty disables encryption at rest.
	EncryptionKey string `mapstructure:"encryption_key"`

	// MaskPII keeps a masked copy of every saved session under AuditDir.
	MaskPII  bool   `mapstructure:"mask_pii"`
	AuditDir string `mapstructure:"audit_dir"`
}

// Keys lists every setting. Each one can be overridden by LENDFLOW_<KEY> with dots as underscores.
var Keys = []string{
	"log_level",
	"store.backend", "store.dir", "store.redis_addr", "store.redis_password", "store.redis_db", "store.ttl", "store.prefix",
	"artifact.dir", "artifact.mask_pan",
	"assistant.enabled", "assistant.base_url", "assistant.model", "assistant.api_key", "assistant.timeout",
	"http.port",
	"security.encryption_key", "security.mask_pii", "security.audit_dir",
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			Backend:   BackendMemory,
			Dir:       ".lendflow/sessions",
			RedisAddr: "localhost:6379",
		},
		Artifact: ArtifactConfig{Dir: "."},
		Assistant: AssistantConfig{
			Timeout: 3 * time.Second,
		},
		HTTP:     HTTPConfig{Port: 8080},
		Security: SecurityConfig{AuditDir: ".lendflow/audit"},
	}
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return "LENDFLOW_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads path (DefaultFile when empty) if it exists, then applies environment overrides.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	for _, key := range Keys {
		if v, ok := lookup(EnvName(key)); ok {
			set(raw, key, v)
		}
	}
	if v, ok := lookup("GROQ_API_KEY"); ok {
		if _, set := lookup(EnvName("assistant.api_key")); !set {
			setDefault(raw, "assistant.api_key", v)
		}
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store ttl must not be negative")
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if _, err := c.Security.Key(); err != nil {
		return err
	}
	return nil
}

// Key decodes the encryption key. It returns nil when encryption is off.
func (s SecurityConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

func set(raw map[string]any, key string, value any) {
	section, leaf, nested := strings.Cut(key, ".")
	if !nested {
		raw[key] = value
		return
	}
	m, ok := raw[section].(map[string]any)
	if !ok {
		m = map[string]any{}
		raw[section] = m
	}
	m[leaf] = value
}

func setDefault(raw map[string]any, key string, value any) {
	section, leaf, _ := strings.Cut(key, ".")
	if m, ok := raw[section].(map[string]any); ok {
		if _, exists := m[leaf]; exists {
			return
		}
	}
	set(raw, key, value)
}
