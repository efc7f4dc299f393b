package forceexpire

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every Redis error other than a missing key.
var ErrUnavailable = errors.New("force-expire store unavailable")

const scanBatch = 256

// Entry is one denylisted token as reported by [Store.Scan].
type Entry struct {
	Key       string
	ExpiredAt time.Time
	TTL       time.Duration
}

// Item is one pending insert for [Store.PutMany].
type Item struct {
	Key string
	TTL time.Duration
}

// Options tunes key namespacing and per-call timeouts.
type Options struct {
	Prefix    string
	OpTimeout time.Duration
	Now       func() time.Time
}

// Store is a Redis-backed force-expire registry.
//
// Store is safe for concurrent use; coordination relies entirely on the
// atomicity of SET/EXISTS and Redis-side TTL eviction.
type Store struct {
	redis     redis.UniversalClient
	prefix    string
	opTimeout time.Duration
	now       func() time.Time
}

// NewStore creates a registry over client.
func NewStore(client redis.UniversalClient, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		redis:     client,
		prefix:    opts.Prefix,
		opTimeout: opts.OpTimeout,
		now:       opts.Now,
	}
}

// Key builds the registry key for a token presented with the given type.
func Key(tokenType, token string) string {
	return tokenType + "_" + token
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// escapeGlob quotes the SCAN MATCH metacharacters in a literal prefix.
func escapeGlob(lit string) string {
	return strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`).Replace(lit)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Put records key as force-expired for ttl. A non-positive ttl means the token
// has already expired naturally and nothing is written.
//
//	Performance: 1 Redis SET.
func (s *Store) Put(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	marker := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.redis.Set(ctx, s.key(key), marker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// PutMany records several keys in one pipeline, skipping non-positive TTLs.
// It returns the number of entries written.
func (s *Store) PutMany(ctx context.Context, items []Item) (int, error) {
	live := make([]Item, 0, len(items))
	for _, it := range items {
		if it.TTL > 0 {
			live = append(live, it)
		}
	}
	if len(live) == 0 {
		return 0, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	marker := strconv.FormatInt(s.now().Unix(), 10)
	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, it := range live {
			pipe.Set(ctx, s.key(it.Key), marker, it.TTL)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return len(live), nil
}

// Get reports whether key is force-expired and, if so, when it was marked.
// Absence is not an error.
//
//	Performance: 1 Redis GET.
func (s *Store) Get(ctx context.Context, key string) (time.Time, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return parseMarker(raw), true, nil
}

// Scan lists every entry under the store prefix with its remaining TTL,
// ordered by key. It is meant for diagnostics only.
func (s *Store) Scan(ctx context.Context) ([]Entry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		cursor uint64
		keys   []string
	)
	match := escapeGlob(s.prefix) + "*_*"
	for {
		batch, next, err := s.redis.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return []Entry{}, nil
	}
	sort.Strings(keys)

	pipe := s.redis.Pipeline()
	values := make([]*redis.StringCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	for i, k := range keys {
		values[i] = pipe.Get(ctx, k)
		ttls[i] = pipe.PTTL(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make([]Entry, 0, len(keys))
	for i, k := range keys {
		raw, err := values[i].Result()
		if err != nil {
			// evicted between SCAN and GET
			continue
		}
		ttl := ttls[i].Val()
		if ttl <= 0 {
			continue
		}
		out = append(out, Entry{
			Key:       k[len(s.prefix):],
			ExpiredAt: parseMarker(raw),
			TTL:       ttl,
		})
	}
	return out, nil
}

func parseMarker(raw string) time.Time {
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
