// Package config loads switchboard settings from defaults, an optional config
// file, .env files, SWITCHBOARD_* environment variables and command flags,
// in increasing order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/aretw0/switchboard/pkg/adapters/openai"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SWITCHBOARD_STORE_DRIVER.
const EnvPrefix = "SWITCHBOARD"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

type Config struct {
	UserID          string        `mapstructure:"user_id"`
	MaxSteps        int           `mapstructure:"max_steps"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	TurnTimeout     time.Duration `mapstructure:"turn_timeout"`
	FallbackReply   string        `mapstructure:"fallback_reply"`
	ToolConcurrency int           `mapstructure:"tool_concurrency"`

	// ControllersDir, when set, replaces the built-in catalog with Markdown descriptors.
	ControllersDir string `mapstructure:"controllers_dir"`

	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	PII        PIIConfig        `mapstructure:"pii"`
	LLM        openai.Config    `mapstructure:"llm"`
	DB         DBConfig         `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	MCP        MCPConfig        `mapstructure:"mcp"`
}

type StoreConfig struct {
	Driver string        `mapstructure:"driver"`
	Dir    string        `mapstructure:"dir"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// EncryptionConfig holds base64 encoded AES-256 keys.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

type PIIConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type MCPConfig struct {
	Transport string `mapstructure:"transport"`
	Port      int    `mapstructure:"port"`
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"user":        "user_id",
	"max-steps":   "max_steps",
	"timeout":     "turn_timeout",
	"controllers": "controllers_dir",
	"store":       "store.driver",
	"store-dir":   "store.dir",
	"redis-addr":  "redis.addr",
	"db":          "db.path",
	"model":       "llm.model",
	"base-url":    "llm.base_url",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"port":        "http.port",
	"transport":   "mcp.transport",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user_id", "0000 000001")
	v.SetDefault("max_steps", 25)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("turn_timeout", 2*time.Minute)
	v.SetDefault("fallback_reply", "")
	v.SetDefault("tool_concurrency", 4)
	v.SetDefault("controllers_dir", "")

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dir", ".switchboard/sessions")
	v.SetDefault("store.ttl", time.Duration(0))

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 30*time.Second)

	v.SetDefault("encryption.key", "")
	v.SetDefault("encryption.fallback_keys", []string{})
	v.SetDefault("pii.patterns", []string{})

	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", openai.DefaultModel)
	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.requests_per_second", 0)
	v.SetDefault("llm.burst", 1)

	v.SetDefault("db.path", "travel.sqlite")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.port", 8080)
	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.port", 8081)
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. When empty, switchboard.{yaml,json,toml}
	// is searched in the working directory and missing files are ignored.
	File string

	// EnvFiles are loaded with godotenv before the environment is read.
	// Variables already set in the process win. Missing files are ignored.
	EnvFiles []string

	// Flags are bound on top of everything else (only flags the user set).
	Flags *pflag.FlagSet
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	} else {
		v.SetConfigName("switchboard")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	if c.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts))
	}
	if c.TurnTimeout < 0 {
		errs = append(errs, fmt.Errorf("turn_timeout must not be negative"))
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		errs = append(errs, fmt.Errorf("mcp.transport: expected stdio or sse, got %q", c.MCP.Transport))
	}
	if _, _, err := c.Encryption.Keys(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (e EncryptionConfig) Keys() ([]byte, [][]byte, error) {
	if e.Key == "" {
		if len(e.FallbackKeys) > 0 {
			return nil, nil, errors.New("encryption.fallback_keys requires encryption.key")
		}
		return nil, nil, nil
	}
	active, err := decodeKey("encryption.key", e.Key)
	if err != nil {
		return nil, nil, err
	}
	fallbacks := make([][]byte, 0, len(e.FallbackKeys))
	for i, k := range e.FallbackKeys {
		key, err := decodeKey(fmt.Sprintf("encryption.fallback_keys[%d]", i), k)
		if err != nil {
			return nil, nil, err
		}
		fallbacks = append(fallbacks, key)
	}
	return active, fallbacks, nil
}

func decodeKey(name, s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%s: not valid base64: %w", name, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%s: expected 32 bytes, got %d", name, len(key))
	}
	return key, nil
}
