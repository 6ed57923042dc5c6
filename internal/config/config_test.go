package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lendflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
log_level: debug
store:
  backend: redis
  redis_addr: redis:6379
  ttl: 24h
assistant:
  enabled: true
  model: llama-3.1-70b
http:
  port: 9000
`)
	cfg, err := load(path, env(map[string]string{
		"LENDFLOW_HTTP_PORT":         "9100",
		"LENDFLOW_STORE_REDIS_DB":    "2",
		"LENDFLOW_SECURITY_MASK_PII": "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.True(t, cfg.Assistant.Enabled)
	assert.Equal(t, "llama-3.1-70b", cfg.Assistant.Model)
	assert.Equal(t, 3*time.Second, cfg.Assistant.Timeout, "unset keys keep defaults")
	assert.Equal(t, 9100, cfg.HTTP.Port, "env wins over file")
	assert.True(t, cfg.Security.MaskPII)
}

func TestLoad_GroqKey(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load("", env(map[string]string{"GROQ_API_KEY": "gsk-1"}))
	require.NoError(t, err)
	assert.Equal(t, "gsk-1", cfg.Assistant.APIKey)

	cfg, err = load("", env(map[string]string{
		"GROQ_API_KEY":               "gsk-1",
		"LENDFLOW_ASSISTANT_API_KEY": "own",
	}))
	require.NoError(t, err)
	assert.Equal(t, "own", cfg.Assistant.APIKey)

	path := writeFile(t, "assistant:\n  api_key: from-file\n")
	cfg, err = load(path, env(map[string]string{"GROQ_API_KEY": "gsk-1"}))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Assistant.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{name: "unknown key", content: "stor:\n  backend: file\n", want: "invalid config"},
		{name: "bad yaml", content: "store: [", want: "failed to parse"},
		{name: "bad backend", content: "store:\n  backend: mongo\n", want: "unknown store backend"},
		{name: "bad port", env: map[string]string{"LENDFLOW_HTTP_PORT": "70000"}, want: "invalid http port"},
		{name: "bad duration", env: map[string]string{"LENDFLOW_STORE_TTL": "soon"}, want: "invalid config"},
		{name: "short key", env: map[string]string{"LENDFLOW_SECURITY_ENCRYPTION_KEY": base64.StdEncoding.EncodeToString([]byte("short"))}, want: "32 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			_, err := load(path, env(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), env(nil))
	assert.Error(t, err)
}

func TestSecurityKey(t *testing.T) {
	raw := []byte(strings.Repeat("k", 32))
	key, err := SecurityConfig{EncryptionKey: base64.StdEncoding.EncodeToString(raw)}.Key()
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	key, err = SecurityConfig{}.Key()
	require.NoError(t, err)
	assert.Nil(t, key)

	_, err = SecurityConfig{EncryptionKey: "%%%"}.Key()
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "LENDFLOW_STORE_REDIS_ADDR", EnvName("store.redis_addr"))
	assert.Equal(t, "LENDFLOW_LOG_LEVEL", EnvName("log_level"))
}
