package rentalAuth

import (
	"crypto/aes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/rentalAuth/password"
)

// Config is the complete Engine configuration. Obtain a starting point from
// [DefaultConfig]; the Builder copies it, so later edits have no effect on a
// built Engine.
type Config struct {
	JWT         JWTConfig
	ForceExpire ForceExpireConfig
	Filter      FilterConfig
	Admin       AdminConfig
	Events      EventsConfig
	Metrics     MetricsConfig
	Password    PasswordConfig
	Throttle    ThrottleConfig
	Store       StoreConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds signing and claims-encryption material.
type JWTConfig struct {
	Secret     []byte // HS256 key, at least 32 bytes
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	ClaimsKey  []byte // AES-128/192/256 key for the cdt claim
	ClaimsIV   []byte // one AES block
}

/*
====================================
FORCE-EXPIRE CONFIG
====================================
*/

// ForceExpireConfig tunes the Redis denylist.
type ForceExpireConfig struct {
	KeyPrefix string
	OpTimeout time.Duration
	// FailClosed rejects credentials when the denylist cannot be read.
	FailClosed bool
}

// FilterConfig lists the request paths the authentication middleware guards.
// A trailing "/*" matches every path below the prefix.
type FilterConfig struct {
	Paths []string
}

// AdminConfig gates the admin force-expire operation.
type AdminConfig struct {
	SharedSecret string
}

// EventsConfig controls the asynchronous lifecycle event dispatcher.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables in-process counters and the latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// PasswordConfig holds the Argon2id cost parameters used to verify logins.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// ThrottleConfig limits failed logins per identifier. Disabled by default.
type ThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
	KeyPrefix   string
}

// StoreConfig bounds repository calls.
type StoreConfig struct {
	OpTimeout time.Duration
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns production defaults. Secret, issuer, claims key and IV
// must still be supplied.
func DefaultConfig() Config {
	p := password.DefaultParams()
	return Config{
		JWT: JWTConfig{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		ForceExpire: ForceExpireConfig{
			KeyPrefix:  "",
			OpTimeout:  300 * time.Millisecond,
			FailClosed: false,
		},
		Filter: FilterConfig{
			Paths: []string{"/auth/me", "/auth/logout", "/admin/*", "/api/*"},
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Password: PasswordConfig{
			Memory:      p.Memory,
			Time:        p.Time,
			Parallelism: p.Parallelism,
			SaltLength:  p.SaltLength,
			KeyLength:   p.KeyLength,
		},
		Throttle: ThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			KeyPrefix:   "throttle:",
		},
		Store: StoreConfig{
			OpTimeout: 2 * time.Second,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	out.JWT.ClaimsKey = cloneBytes(cfg.JWT.ClaimsKey)
	out.JWT.ClaimsIV = cloneBytes(cfg.JWT.ClaimsIV)
	out.Filter.Paths = append([]string(nil), cfg.Filter.Paths...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c PasswordConfig) params() password.Params {
	return password.Params{
		Memory:      c.Memory,
		Time:        c.Time,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes")
	}
	if strings.TrimSpace(c.JWT.Issuer) == "" {
		return errors.New("JWT Issuer must be set")
	}
	if c.JWT.AccessTTL < time.Second {
		return errors.New("JWT AccessTTL must be >= 1s")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be greater than AccessTTL")
	}
	switch len(c.JWT.ClaimsKey) {
	case 16, 24, 32:
	default:
		return errors.New("JWT ClaimsKey must be 16, 24 or 32 bytes")
	}
	if len(c.JWT.ClaimsIV) != aes.BlockSize {
		return fmt.Errorf("JWT ClaimsIV must be %d bytes", aes.BlockSize)
	}

	// Force-expire
	if c.ForceExpire.OpTimeout < 0 {
		return errors.New("ForceExpire OpTimeout must be >= 0")
	}
	if strings.ContainsAny(c.ForceExpire.KeyPrefix, "*?[]") {
		return errors.New("ForceExpire KeyPrefix must not contain glob characters")
	}

	// Filter
	for _, p := range c.Filter.Paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("Filter path %q must start with /", p)
		}
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Password
	if _, err := password.NewHasher(c.Password.params()); err != nil {
		return fmt.Errorf("Password: %w", err)
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts <= 0 {
			return errors.New("Throttle MaxAttempts must be > 0 when enabled")
		}
		if c.Throttle.Window <= 0 {
			return errors.New("Throttle Window must be > 0 when enabled")
		}
		// the registry is listed by prefix scan
		fe, th := c.ForceExpire.KeyPrefix, c.Throttle.KeyPrefix
		if strings.HasPrefix(fe, th) || strings.HasPrefix(th, fe) {
			return errors.New("Throttle KeyPrefix and ForceExpire KeyPrefix must not overlap")
		}
	}

	// Store
	if c.Store.OpTimeout < 0 {
		return errors.New("Store OpTimeout must be >= 0")
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// Lint returns non-fatal warnings for a configuration that validates but is
// risky to run in production.
func (c *Config) Lint() []string {
	var out []string
	if c.Admin.SharedSecret == "" {
		out = append(out, "Admin SharedSecret is empty: admin force-expire is disabled")
	} else if len(c.Admin.SharedSecret) < 16 {
		out = append(out, "Admin SharedSecret is shorter than 16 characters")
	}
	if c.JWT.AccessTTL > time.Hour {
		out = append(out, "JWT AccessTTL above 1h widens the revocation window")
	}
	if !c.ForceExpire.FailClosed {
		out = append(out, "ForceExpire FailClosed is off: revoked tokens are accepted during Redis outages")
	}
	if c.ForceExpire.OpTimeout == 0 {
		out = append(out, "ForceExpire OpTimeout is 0: registry lookups are bounded only by the request context")
	}
	if len(c.Filter.Paths) == 0 {
		out = append(out, "Filter Paths is empty: the middleware authenticates nothing")
	}
	return out
}
