package rentalAuth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/rentalAuth/forceexpire"
	"github.com/MrEthical07/rentalAuth/internal/flows"
	"github.com/MrEthical07/rentalAuth/internal/rate"
	"github.com/MrEthical07/rentalAuth/jwt"
	"github.com/MrEthical07/rentalAuth/password"
	"github.com/MrEthical07/rentalAuth/store"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder can be built once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	members store.MemberRepository
	history store.HistoryRepository
	locks   store.LockRepository

	eventSink EventSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the force-expire registry.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithMemberRepository(r store.MemberRepository) *Builder {
	b.members = r
	return b
}

func (b *Builder) WithHistoryRepository(r store.HistoryRepository) *Builder {
	b.history = r
	return b
}

func (b *Builder) WithLockRepository(r store.LockRepository) *Builder {
	b.locks = r
	return b
}

// WithEventSink sets the destination of lifecycle events. Events are only
// dispatched when Config.Events.Enabled is set.
func (b *Builder) WithEventSink(sink EventSink) *Builder {
	b.eventSink = sink
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the wall clock used for token timestamps, lock windows
// and history rows.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.members == nil {
		return nil, errors.New("member repository required")
	}
	if b.history == nil {
		return nil, errors.New("history repository required")
	}
	if b.locks == nil {
		return nil, errors.New("lock repository required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "rentalauth")

	// -------- CODEC --------
	codec, err := jwt.NewCodec(jwt.Config{
		Secret:    cfg.JWT.Secret,
		Issuer:    cfg.JWT.Issuer,
		ClaimsKey: cfg.JWT.ClaimsKey,
		ClaimsIV:  cfg.JWT.ClaimsIV,
		Now:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("jwt codec: %w", err)
	}

	// -------- PASSWORDS --------
	hasher, err := password.NewHasher(cfg.Password.params())
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	decoy, err := hasher.Hash("decoy-password-never-matches")
	if err != nil {
		return nil, fmt.Errorf("password decoy: %w", err)
	}

	// -------- REGISTRY --------
	registry := forceexpire.NewStore(b.redis, forceexpire.Options{
		Prefix:    cfg.ForceExpire.KeyPrefix,
		OpTimeout: cfg.ForceExpire.OpTimeout,
		Now:       now,
	})

	// -------- THROTTLE --------
	var throttle flows.LoginThrottle
	if cfg.Throttle.Enabled {
		throttle = rate.New(b.redis, rate.Config{
			Prefix:      cfg.Throttle.KeyPrefix,
			MaxAttempts: cfg.Throttle.MaxAttempts,
			Window:      cfg.Throttle.Window,
		})
	}

	warn := logger.With("subsystem", "flows").Warn
	authDeps := flows.AuthenticateDeps{
		Codec:             codec,
		Registry:          registry,
		Secret:            cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		MaxAccessLifetime: cfg.JWT.AccessTTL,
		FailClosed:        cfg.ForceExpire.FailClosed,
		Warn:              warn,
	}
	issuer := flows.PairIssuer{
		Codec:      codec,
		History:    b.history,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Now:        now,
	}

	engine := &Engine{
		config:   cfg,
		codec:    codec,
		registry: registry,
		hasher:   hasher,
		events:   newEventDispatcher(cfg.Events, b.eventSink, now),
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger,
		filter:   newPathMatcher(cfg.Filter.Paths),
		flows: flows.New(flows.Deps{
			Authenticate: authDeps,
			Login: flows.LoginDeps{
				Members:   b.members,
				Locks:     b.locks,
				Passwords: hasher,
				Issuer:    issuer,
				DecoyHash: decoy,
				Throttle:  throttle,
				Now:       now,
				Warn:      warn,
			},
			Reissue: flows.ReissueDeps{
				Codec:      codec,
				Registry:   registry,
				History:    b.history,
				Members:    b.members,
				Issuer:     issuer,
				Secret:     cfg.JWT.Secret,
				IssuerName: cfg.JWT.Issuer,
				FailClosed: cfg.ForceExpire.FailClosed,
				Now:        now,
				Warn:       warn,
			},
			Logout: flows.LogoutDeps{
				Authenticate: authDeps,
				History:      b.history,
				Now:          now,
				Warn:         warn,
			},
			ExpireAll: flows.ExpireAllDeps{
				Registry: registry,
				History:  b.history,
				Now:      now,
				Warn:     warn,
			},
		}),
	}

	for _, w := range cfg.Lint() {
		logger.Warn("config lint", "warning", w)
	}

	b.built = true
	return engine, nil
}
