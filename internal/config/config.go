// Package config loads parsetrail settings from a YAML file and the environment.
//
// Precedence, lowest first: Default, the YAML file, PARSETRAIL_* environment
// variables, then command-line flags (applied by the CLI).
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "PARSETRAIL_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	Service ServiceConfig `mapstructure:"service" envPrefix:"SERVICE_"`
	Server  ServerConfig  `mapstructure:"server" envPrefix:"SERVER_"`
	Replay  ReplayConfig  `mapstructure:"replay" envPrefix:"REPLAY_"`
	Store   StoreConfig   `mapstructure:"store" envPrefix:"STORE_"`
	Redis   RedisConfig   `mapstructure:"redis" envPrefix:"REDIS_"`
	Log     LogConfig     `mapstructure:"log" envPrefix:"LOG_"`
}

// ServiceConfig points at the external parsing service.
type ServiceConfig struct {
	Endpoint string        `mapstructure:"endpoint" env:"ENDPOINT"`
	Timeout  time.Duration `mapstructure:"timeout" env:"TIMEOUT"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr    string `mapstructure:"addr" env:"ADDR"`
	Metrics bool   `mapstructure:"metrics" env:"METRICS"`
}

// ReplayConfig tunes reconstruction and drawing.
type ReplayConfig struct {
	StartSymbol string `mapstructure:"start_symbol" env:"START_SYMBOL"`
	Width       int    `mapstructure:"width" env:"WIDTH"`
	Height      int    `mapstructure:"height" env:"HEIGHT"`
}

// StoreConfig selects where sessions live.
type StoreConfig struct {
	Backend string `mapstructure:"backend" env:"BACKEND"`
	Dir     string `mapstructure:"dir" env:"DIR"`

	// MaxSessions bounds the memory backend; older sessions are evicted first. Zero is unbounded.
	MaxSessions int `mapstructure:"max_sessions" env:"MAX_SESSIONS"`

	// EncryptionKey is a base64 AES-256 key; empty disables encryption at rest.
	EncryptionKey string `mapstructure:"encryption_key" env:"ENCRYPTION_KEY"`
}

// RedisConfig is used when Store.Backend is "redis".
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" env:"ADDR"`
	Password string        `mapstructure:"password" env:"PASSWORD"`
	DB       int           `mapstructure:"db" env:"DB"`
	Prefix   string        `mapstructure:"prefix" env:"PREFIX"`
	TTL      time.Duration `mapstructure:"ttl" env:"TTL"`
	Lock     bool          `mapstructure:"lock" env:"LOCK"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL"`
	Format string `mapstructure:"format" env:"FORMAT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Service: ServiceConfig{Endpoint: "http://0.0.0.0:8001/parse"},
		Server:  ServerConfig{Addr: ":8080", Metrics: true},
		Replay:  ReplayConfig{StartSymbol: "s", Width: 600, Height: 400},
		Store:   StoreConfig{Backend: BackendMemory, Dir: ".parsetrail/sessions", MaxSessions: 1000},
		Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "parsetrail:session:"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the optional YAML file at path, and the environment.
// A missing file is only an error when path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	return cfg, cfg.Validate()
}

// decodeYAML goes through a generic map so numbers written as strings ("30s", "0") still decode.
func decodeYAML(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	if c.Service.Endpoint == "" {
		errs = append(errs, errors.New("service.endpoint: must not be empty"))
	}
	if c.Service.Timeout < 0 {
		errs = append(errs, errors.New("service.timeout: must not be negative"))
	}
	if c.Store.MaxSessions < 0 {
		errs = append(errs, errors.New("store.max_sessions: must not be negative"))
	}
	if c.Replay.Width <= 0 || c.Replay.Height <= 0 {
		errs = append(errs, errors.New("replay.width and replay.height must be positive"))
	}
	if c.Store.EncryptionKey != "" {
		if _, err := c.Store.Key(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Key decodes EncryptionKey. It returns nil when encryption is disabled.
func (s StoreConfig) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("store.encryption_key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}
