package session

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/scnet"
)

// RateLimitConfig defines outbound rate limiting for requests sent by the session
type RateLimitConfig struct {
	// MessagesPerSecond defines how many requests may be sent per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the recommended throttle for callers that opt in.
// Allows 100 requests per second with burst of 200
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 100,
		Burst:             200,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

func (c *RateLimitConfig) limiter() *rate.Limiter {
	if c == nil || !c.Enabled {
		return nil
	}
	return rate.NewLimiter(c.MessagesPerSecond, c.Burst)
}

// Config configures a Session.
type Config struct {
	// URL is used by the default reconnect handler until Connect records another one.
	URL string

	// Transport opens channels to sc-server. Required.
	Transport scnet.Transport

	// ResponseTimeout bounds the wait for a correlated response.
	ResponseTimeout time.Duration
	// EstablishTimeout is the grace period Connect waits for the channel to open.
	EstablishTimeout time.Duration

	// ReconnectRetries is the number of send retries after the channel closed. 0 disables retries.
	ReconnectRetries int
	// ReconnectRetryDelay is waited before every retry but the first.
	ReconnectRetryDelay time.Duration

	// MaxPayloadSize is the encoded envelope ceiling in bytes. Negative disables the check.
	MaxPayloadSize int

	// RateLimit throttles outbound requests. Throttling is off unless enabled here.
	RateLimit *RateLimitConfig

	ErrorHandler         scnet.ErrorHandler
	ReconnectHandler     scnet.ReconnectHandler
	PostReconnectHandler scnet.PostReconnectHandler

	Logger *zerolog.Logger
}

// DefaultConfig returns a Config with the package defaults and no transport.
func DefaultConfig() *Config {
	return &Config{
		ResponseTimeout:     scnet.DefaultResponseTimeout,
		EstablishTimeout:    scnet.DefaultEstablishTimeout,
		ReconnectRetries:    scnet.DefaultReconnectRetries,
		ReconnectRetryDelay: scnet.DefaultReconnectRetryDelay,
		MaxPayloadSize:      scnet.DefaultMaxPayloadSize,
		RateLimit:           NoRateLimit(),
	}
}

func (c Config) withDefaults() Config {
	if c.ResponseTimeout <= 0 {
		c.ResponseTimeout = scnet.DefaultResponseTimeout
	}
	if c.EstablishTimeout <= 0 {
		c.EstablishTimeout = scnet.DefaultEstablishTimeout
	}
	if c.ReconnectRetries < 0 {
		c.ReconnectRetries = 0
	}
	if c.ReconnectRetryDelay < 0 {
		c.ReconnectRetryDelay = 0
	}
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = scnet.DefaultMaxPayloadSize
	}
	if c.RateLimit == nil {
		c.RateLimit = NoRateLimit()
	}
	return c
}
