package client

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/luciancaetano/scnet"
)

// RateLimitConfig throttles outbound requests with a token bucket.
type RateLimitConfig struct {
	// MessagesPerSecond defines how many requests may be sent per second
	MessagesPerSecond float64
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// Config configures a Client. Zero durations and sizes fall back to the scnet defaults.
type Config struct {
	// URL is the sc-server endpoint used by reconnects until Connect is called.
	URL string

	ResponseTimeout     time.Duration
	EstablishTimeout    time.Duration
	ReconnectRetries    int
	ReconnectRetryDelay time.Duration

	// MaxPayloadSize bounds the encoded request envelope in bytes. Negative disables the check.
	MaxPayloadSize int

	// RateLimit throttles outbound requests. nil or disabled sends without throttling.
	RateLimit *RateLimitConfig

	// HandshakeTimeout and PingInterval tune the default WebSocket transport.
	HandshakeTimeout time.Duration
	PingInterval     time.Duration

	// Transport replaces the WebSocket transport, mainly for tests.
	Transport scnet.Transport

	ErrorHandler         scnet.ErrorHandler
	ReconnectHandler     scnet.ReconnectHandler
	PostReconnectHandler scnet.PostReconnectHandler

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns a Config with the scnet defaults.
func DefaultConfig() *Config {
	return &Config{
		ResponseTimeout:     scnet.DefaultResponseTimeout,
		EstablishTimeout:    scnet.DefaultEstablishTimeout,
		ReconnectRetries:    scnet.DefaultReconnectRetries,
		ReconnectRetryDelay: scnet.DefaultReconnectRetryDelay,
		MaxPayloadSize:      scnet.DefaultMaxPayloadSize,
	}
}

// ReconnectConfig replaces the reconnect policy of a connected Client.
type ReconnectConfig struct {
	// Handler runs before each send retry. nil reconnects to the last url.
	Handler scnet.ReconnectHandler
	// PostHandler runs after a connection opens within the establish grace period.
	PostHandler scnet.PostReconnectHandler
	Retries     int
	Delay       time.Duration
}

// DefaultReconnectConfig returns the default retry policy.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Retries: scnet.DefaultReconnectRetries,
		Delay:   scnet.DefaultReconnectRetryDelay,
	}
}
