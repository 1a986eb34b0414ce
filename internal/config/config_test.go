package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/luciancaetano/scnet"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scnet.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
	if cfg.URL != DefaultURL {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.RateLimit != 0 || cfg.Client().RateLimit.Enabled {
		t.Errorf("RateLimit = %v, want throttling off by default", cfg.RateLimit)
	}
}

func TestLoadFileOverridesDefinedKeys(t *testing.T) {
	path := writeConfig(t, `
url = "ws://sc-server:8090/ws_json"
response_timeout = "2s"
reconnect_retries = 0
rate_limit = 0.0
metrics_addr = ":9464"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.URL != "ws://sc-server:8090/ws_json" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.ResponseTimeout != 2*time.Second {
		t.Errorf("ResponseTimeout = %v", cfg.ResponseTimeout)
	}
	if cfg.ReconnectRetries != 0 {
		t.Errorf("ReconnectRetries = %d, explicit 0 should override the default", cfg.ReconnectRetries)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("RateLimit = %v", cfg.RateLimit)
	}
	if cfg.MetricsAddr != ":9464" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}

	// untouched keys keep their defaults
	if cfg.EstablishTimeout != scnet.DefaultEstablishTimeout {
		t.Errorf("EstablishTimeout = %v", cfg.EstablishTimeout)
	}
	if cfg.ReconnectRetryDelay != scnet.DefaultReconnectRetryDelay {
		t.Errorf("ReconnectRetryDelay = %v", cfg.ReconnectRetryDelay)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad duration", body: `response_timeout = "soon"`, want: "response_timeout"},
		{name: "unknown key", body: `retries = 3`, want: "unknown key"},
		{name: "bad scheme", body: `url = "http://localhost:8090"`, want: "ws://"},
		{name: "negative retries", body: `reconnect_retries = -1`, want: "reconnect_retries"},
		{name: "syntax", body: `url = `, want: "load config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
url = "ws://file:8090/ws_json"
reconnect_retry_delay = "1s"
`)
	t.Setenv("SCNET_URL", "ws://env:8090/ws_json")
	t.Setenv("SCNET_RECONNECT_RETRIES", "9")
	t.Setenv("SCNET_RESPONSE_TIMEOUT", "750ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.URL != "ws://env:8090/ws_json" {
		t.Errorf("URL = %q, want the environment value", cfg.URL)
	}
	if cfg.ReconnectRetries != 9 {
		t.Errorf("ReconnectRetries = %d", cfg.ReconnectRetries)
	}
	if cfg.ResponseTimeout != 750*time.Millisecond {
		t.Errorf("ResponseTimeout = %v", cfg.ResponseTimeout)
	}
	if cfg.ReconnectRetryDelay != time.Second {
		t.Errorf("ReconnectRetryDelay = %v, want the file value", cfg.ReconnectRetryDelay)
	}
}

func TestEnvironmentRateLimit(t *testing.T) {
	path := writeConfig(t, `
rate_limit = 5.0
rate_burst = 1
`)
	t.Setenv("SCNET_RATE_LIMIT", "50")
	t.Setenv("SCNET_RATE_BURST", "25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RateLimit != 50 || cfg.RateBurst != 25 {
		t.Errorf("RateLimit = %v, RateBurst = %d, want the environment values", cfg.RateLimit, cfg.RateBurst)
	}
	if rl := cfg.Client().RateLimit; !rl.Enabled {
		t.Errorf("RateLimit = %+v, want enabled", rl)
	}
}

func TestEnvironmentErrors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "SCNET_RECONNECT_RETRIES", value: "many"},
		{key: "SCNET_RATE_LIMIT", value: "fast"},
		{key: "SCNET_RATE_BURST", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := Load(""); err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Load() error = %v", err)
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.URL = "ws://example/ws_json"
	cfg.RateLimit = 0

	out := cfg.Client()
	if out.URL != cfg.URL {
		t.Errorf("URL = %q", out.URL)
	}
	if out.ResponseTimeout != cfg.ResponseTimeout || out.ReconnectRetries != cfg.ReconnectRetries {
		t.Errorf("timeouts not copied: %+v", out)
	}
	if out.RateLimit == nil || out.RateLimit.Enabled {
		t.Errorf("RateLimit = %+v, want disabled", out.RateLimit)
	}

	cfg.RateLimit = 50
	cfg.RateBurst = 10
	if rl := cfg.Client().RateLimit; !rl.Enabled || rl.MessagesPerSecond != 50 || rl.Burst != 10 {
		t.Errorf("RateLimit = %+v", rl)
	}
}
