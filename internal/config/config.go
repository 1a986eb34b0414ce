// Package config loads client settings from a TOML file and SCNET_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/client"
)

// DefaultURL is the JSON endpoint of a local sc-server.
const DefaultURL = "ws://localhost:8090/ws_json"

// Config holds everything needed to build a client and its process around it.
type Config struct {
	URL                 string
	ResponseTimeout     time.Duration
	EstablishTimeout    time.Duration
	ReconnectRetries    int
	ReconnectRetryDelay time.Duration
	MaxPayloadSize      int
	// RateLimit is in requests per second. 0, the default, disables throttling.
	RateLimit float64
	RateBurst int
	LogLevel  string
	// MetricsAddr serves prometheus metrics when set, e.g. ":9464".
	MetricsAddr string
}

func Default() Config {
	return Config{
		URL:                 DefaultURL,
		ResponseTimeout:     scnet.DefaultResponseTimeout,
		EstablishTimeout:    scnet.DefaultEstablishTimeout,
		ReconnectRetries:    scnet.DefaultReconnectRetries,
		ReconnectRetryDelay: scnet.DefaultReconnectRetryDelay,
		MaxPayloadSize:      scnet.DefaultMaxPayloadSize,
		RateLimit:           0,
		RateBurst:           200,
		LogLevel:            "info",
	}
}

type fileConfig struct {
	URL                 string  `toml:"url"`
	ResponseTimeout     string  `toml:"response_timeout"`
	EstablishTimeout    string  `toml:"establish_timeout"`
	ReconnectRetries    int     `toml:"reconnect_retries"`
	ReconnectRetryDelay string  `toml:"reconnect_retry_delay"`
	MaxPayloadSize      int     `toml:"max_payload_size"`
	RateLimit           float64 `toml:"rate_limit"`
	RateBurst           int     `toml:"rate_burst"`
	LogLevel            string  `toml:"log_level"`
	MetricsAddr         string  `toml:"metrics_addr"`
}

// envConfig mirrors fileConfig; empty values leave the setting untouched.
type envConfig struct {
	URL                 string `env:"SCNET_URL"`
	ResponseTimeout     string `env:"SCNET_RESPONSE_TIMEOUT"`
	EstablishTimeout    string `env:"SCNET_ESTABLISH_TIMEOUT"`
	ReconnectRetries    string `env:"SCNET_RECONNECT_RETRIES"`
	ReconnectRetryDelay string `env:"SCNET_RECONNECT_RETRY_DELAY"`
	MaxPayloadSize      string `env:"SCNET_MAX_PAYLOAD_SIZE"`
	RateLimit           string `env:"SCNET_RATE_LIMIT"`
	RateBurst           string `env:"SCNET_RATE_BURST"`
	LogLevel            string `env:"SCNET_LOG_LEVEL"`
	MetricsAddr         string `env:"SCNET_METRICS_ADDR"`
}

// Load returns the defaults overridden by the file at path, if path is not empty,
// and then by the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("url") {
		cfg.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("response_timeout") {
		if cfg.ResponseTimeout, err = parseDuration("response_timeout", raw.ResponseTimeout); err != nil {
			return err
		}
	}
	if meta.IsDefined("establish_timeout") {
		if cfg.EstablishTimeout, err = parseDuration("establish_timeout", raw.EstablishTimeout); err != nil {
			return err
		}
	}
	if meta.IsDefined("reconnect_retries") {
		cfg.ReconnectRetries = raw.ReconnectRetries
	}
	if meta.IsDefined("reconnect_retry_delay") {
		if cfg.ReconnectRetryDelay, err = parseDuration("reconnect_retry_delay", raw.ReconnectRetryDelay); err != nil {
			return err
		}
	}
	if meta.IsDefined("max_payload_size") {
		cfg.MaxPayloadSize = raw.MaxPayloadSize
	}
	if meta.IsDefined("rate_limit") {
		cfg.RateLimit = raw.RateLimit
	}
	if meta.IsDefined("rate_burst") {
		cfg.RateBurst = raw.RateBurst
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("load environment: %w", err)
	}

	var err error
	if env.URL != "" {
		cfg.URL = strings.TrimSpace(env.URL)
	}
	if env.ResponseTimeout != "" {
		if cfg.ResponseTimeout, err = parseDuration("SCNET_RESPONSE_TIMEOUT", env.ResponseTimeout); err != nil {
			return err
		}
	}
	if env.EstablishTimeout != "" {
		if cfg.EstablishTimeout, err = parseDuration("SCNET_ESTABLISH_TIMEOUT", env.EstablishTimeout); err != nil {
			return err
		}
	}
	if env.ReconnectRetries != "" {
		if cfg.ReconnectRetries, err = strconv.Atoi(strings.TrimSpace(env.ReconnectRetries)); err != nil {
			return fmt.Errorf("parse SCNET_RECONNECT_RETRIES: %w", err)
		}
	}
	if env.ReconnectRetryDelay != "" {
		if cfg.ReconnectRetryDelay, err = parseDuration("SCNET_RECONNECT_RETRY_DELAY", env.ReconnectRetryDelay); err != nil {
			return err
		}
	}
	if env.MaxPayloadSize != "" {
		if cfg.MaxPayloadSize, err = strconv.Atoi(strings.TrimSpace(env.MaxPayloadSize)); err != nil {
			return fmt.Errorf("parse SCNET_MAX_PAYLOAD_SIZE: %w", err)
		}
	}
	if env.RateLimit != "" {
		if cfg.RateLimit, err = strconv.ParseFloat(strings.TrimSpace(env.RateLimit), 64); err != nil {
			return fmt.Errorf("parse SCNET_RATE_LIMIT: %w", err)
		}
	}
	if env.RateBurst != "" {
		if cfg.RateBurst, err = strconv.Atoi(strings.TrimSpace(env.RateBurst)); err != nil {
			return fmt.Errorf("parse SCNET_RATE_BURST: %w", err)
		}
	}
	if env.LogLevel != "" {
		cfg.LogLevel = strings.TrimSpace(env.LogLevel)
	}
	if env.MetricsAddr != "" {
		cfg.MetricsAddr = strings.TrimSpace(env.MetricsAddr)
	}
	return nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("config missing url")
	}
	if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
		return fmt.Errorf("config url %q must use ws:// or wss://", c.URL)
	}
	if c.ResponseTimeout <= 0 {
		return fmt.Errorf("config response_timeout must be positive, got %s", c.ResponseTimeout)
	}
	if c.EstablishTimeout <= 0 {
		return fmt.Errorf("config establish_timeout must be positive, got %s", c.EstablishTimeout)
	}
	if c.ReconnectRetries < 0 {
		return fmt.Errorf("config reconnect_retries must not be negative, got %d", c.ReconnectRetries)
	}
	if c.ReconnectRetryDelay < 0 {
		return fmt.Errorf("config reconnect_retry_delay must not be negative, got %s", c.ReconnectRetryDelay)
	}
	if c.RateLimit < 0 || (c.RateLimit > 0 && c.RateBurst <= 0) {
		return fmt.Errorf("config rate_limit %v needs a positive rate_burst, got %d", c.RateLimit, c.RateBurst)
	}
	return nil
}

// Client converts the settings into a client configuration.
func (c Config) Client() *client.Config {
	out := client.DefaultConfig()
	out.URL = c.URL
	out.ResponseTimeout = c.ResponseTimeout
	out.EstablishTimeout = c.EstablishTimeout
	out.ReconnectRetries = c.ReconnectRetries
	out.ReconnectRetryDelay = c.ReconnectRetryDelay
	out.MaxPayloadSize = c.MaxPayloadSize
	out.RateLimit = &client.RateLimitConfig{
		MessagesPerSecond: c.RateLimit,
		Burst:             c.RateBurst,
		Enabled:           c.RateLimit > 0,
	}
	return out
}
