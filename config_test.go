package rentalAuth

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigNeedsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without secrets to fail")
	}
	cfg = testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = []byte("short") }, "Secret"},
		{"blank issuer", func(c *Config) { c.JWT.Issuer = "  " }, "Issuer"},
		{"refresh not longer", func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL }, "RefreshTTL"},
		{"claims key size", func(c *Config) { c.JWT.ClaimsKey = []byte("abc") }, "ClaimsKey"},
		{"claims iv size", func(c *Config) { c.JWT.ClaimsIV = []byte("abc") }, "ClaimsIV"},
		{"glob prefix", func(c *Config) { c.ForceExpire.KeyPrefix = "fe*" }, "KeyPrefix"},
		{"relative path", func(c *Config) { c.Filter.Paths = []string{"api/*"} }, "Filter path"},
		{"events buffer", func(c *Config) { c.Events.Enabled = true; c.Events.BufferSize = 0 }, "BufferSize"},
		{"latency without metrics", func(c *Config) { c.Metrics.Enabled = false }, "EnableLatencyHistograms"},
		{"weak password params", func(c *Config) { c.Password.Memory = 1 }, "Password"},
		{"throttle attempts", func(c *Config) { c.Throttle.Enabled = true; c.Throttle.MaxAttempts = 0 }, "MaxAttempts"},
		{"throttle window", func(c *Config) { c.Throttle.Enabled = true; c.Throttle.Window = 0 }, "Throttle Window"},
		{"throttle prefix clash", func(c *Config) { c.Throttle.Enabled = true; c.Throttle.KeyPrefix = c.ForceExpire.KeyPrefix }, "Throttle KeyPrefix"},
		{"negative store timeout", func(c *Config) { c.Store.OpTimeout = -time.Second }, "Store OpTimeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigLint(t *testing.T) {
	cfg := testConfig()
	cfg.ForceExpire.FailClosed = true
	if got := cfg.Lint(); len(got) != 0 {
		t.Fatalf("expected no warnings, got %v", got)
	}

	cfg.Admin.SharedSecret = ""
	cfg.JWT.AccessTTL = 2 * time.Hour
	cfg.ForceExpire.FailClosed = false
	cfg.ForceExpire.OpTimeout = 0
	cfg.Filter.Paths = nil
	if got := cfg.Lint(); len(got) != 5 {
		t.Fatalf("expected five warnings, got %d: %v", len(got), got)
	}
}

func TestWithConfigCopiesSlices(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg)
	cfg.JWT.Secret[0] = 'X'
	cfg.Filter.Paths[0] = "/changed"

	if b.config.JWT.Secret[0] == 'X' || b.config.Filter.Paths[0] == "/changed" {
		t.Fatal("builder must not alias caller config")
	}
}
