package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFiles() Options {
	return Options{EnvFiles: []string{}}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(noEnvFiles())
	require.NoError(t, err)

	assert.Equal(t, "0000 000001", cfg.UserID)
	assert.Equal(t, 25, cfg.MaxSteps)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.TurnTimeout)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ".switchboard/sessions", cfg.Store.Dir)
	assert.Equal(t, "travel.sqlite", cfg.DB.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "stdio", cfg.MCP.Transport)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user_id: "8149 604011"
turn_timeout: 30s
store:
  driver: file
  dir: /tmp/sessions
llm:
  model: llama3
  base_url: http://localhost:11434/v1
  requests_per_second: 2.5
pii:
  patterns: ["passport", "ssn"]
`), 0o644))

	cfg, err := Load(Options{File: path, EnvFiles: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "8149 604011", cfg.UserID)
	assert.Equal(t, 30*time.Second, cfg.TurnTimeout)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.Equal(t, "/tmp/sessions", cfg.Store.Dir)
	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.InDelta(t, 2.5, cfg.LLM.RequestsPerSecond, 1e-9)
	assert.Equal(t, []string{"passport", "ssn"}, cfg.PII.Patterns)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml"), EnvFiles: []string{}})
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_steps: 10\n"), 0o644))
	t.Setenv("SWITCHBOARD_MAX_STEPS", "7")
	t.Setenv("SWITCHBOARD_STORE_DRIVER", "redis")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(Options{File: path, EnvFiles: []string{}})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxSteps)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SWITCHBOARD_DB_PATH=/data/travel.db\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SWITCHBOARD_DB_PATH") })

	cfg, err := Load(Options{EnvFiles: []string{envFile, filepath.Join(t.TempDir(), "missing.env")}})
	require.NoError(t, err)
	assert.Equal(t, "/data/travel.db", cfg.DB.Path)
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("SWITCHBOARD_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "", "")
	flags.String("store", "", "")
	flags.Duration("timeout", 0, "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug", "--timeout=5s"}))

	cfg, err := Load(Options{Flags: flags, EnvFiles: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.TurnTimeout)
	assert.Equal(t, DriverMemory, cfg.Store.Driver, "unset flags do not shadow defaults")
}

func TestValidate(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Store.Driver = "etcd" }, "unknown driver"},
		{"zero steps", func(c *Config) { c.MaxSteps = 0 }, "max_steps"},
		{"bad transport", func(c *Config) { c.MCP.Transport = "ws" }, "mcp.transport"},
		{"valid key", func(c *Config) { c.Encryption.Key = key }, ""},
		{"short key", func(c *Config) { c.Encryption.Key = base64.StdEncoding.EncodeToString([]byte("short")) }, "expected 32 bytes"},
		{"not base64", func(c *Config) { c.Encryption.Key = "%%%" }, "not valid base64"},
		{"fallback without key", func(c *Config) { c.Encryption.FallbackKeys = []string{key} }, "requires encryption.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(noEnvFiles())
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestEncryptionKeys(t *testing.T) {
	active := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("a", 32)))
	old := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("b", 32)))

	key, fallbacks, err := EncryptionConfig{Key: active, FallbackKeys: []string{old}}.Keys()
	require.NoError(t, err)
	assert.Equal(t, []byte(strings.Repeat("a", 32)), key)
	require.Len(t, fallbacks, 1)
	assert.Equal(t, []byte(strings.Repeat("b", 32)), fallbacks[0])

	key, _, err = EncryptionConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, key)
}
