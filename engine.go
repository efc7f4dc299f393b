package rentalAuth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/rentalAuth/forceexpire"
	"github.com/MrEthical07/rentalAuth/internal/flows"
	"github.com/MrEthical07/rentalAuth/jwt"
	"github.com/MrEthical07/rentalAuth/password"
)

// Engine is the token lifecycle service. It holds only immutable
// configuration and concurrency-safe collaborators, so one Engine serves every
// request goroutine.
type Engine struct {
	config   Config
	codec    *jwt.Codec
	registry *forceexpire.Store
	hasher   *password.Hasher
	flows    flows.Service
	events   *eventDispatcher
	metrics  *Metrics
	logger   *slog.Logger
	filter   pathMatcher
}

// Close stops the event dispatcher after draining accepted events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.events.close()
}

// EventsDropped reports how many lifecycle events never reached the sink.
func (e *Engine) EventsDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.events.droppedTotal()
}

// EventsDroppedByName breaks EventsDropped down by event name. Names with no
// drops are omitted.
func (e *Engine) EventsDroppedByName() map[string]uint64 {
	if e == nil {
		return map[string]uint64{}
	}
	return e.events.droppedByName()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Guards reports whether path is covered by Config.Filter.Paths.
func (e *Engine) Guards(path string) bool {
	if e == nil {
		return false
	}
	return e.filter.match(path)
}

// ThrottleWindow is the failed-login window, or zero when throttling is off.
func (e *Engine) ThrottleWindow() time.Duration {
	if e == nil || !e.config.Throttle.Enabled {
		return 0
	}
	return e.config.Throttle.Window
}

// HashPassword hashes plain with the configured Argon2id parameters. It is
// used by seeding tools; member rows are owned by another service.
func (e *Engine) HashPassword(plain string) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(plain)
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emit(ctx context.Context, name string, uid int64, metadata map[string]string) {
	e.events.publish(ctx, name, uid, metadata)
}

func (e *Engine) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.Store.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.config.Store.OpTimeout)
}

func storeUnavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func toTokenPair(p flows.TokenPair) TokenPair {
	return TokenPair{
		TokenType:        "Bearer",
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}
