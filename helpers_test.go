package rentalAuth

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/rentalAuth/store"
	"github.com/MrEthical07/rentalAuth/store/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	testMemberUID   = 42
	testIdentifier  = "host@example.com"
	testPassword    = "correct-password-123"
	testAdminSecret = "admin-shared-secret-0001"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type testEnv struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	store  *memstore.Store
	clock  *testClock
}

// advance moves both the engine clock and Redis TTLs forward.
func (env *testEnv) advance(d time.Duration) {
	env.clock.mu.Lock()
	env.clock.now = env.clock.now.Add(d)
	env.clock.mu.Unlock()
	env.mr.FastForward(d)
}

func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.JWT.Issuer = "rental-auth"
	cfg.JWT.ClaimsKey = []byte("fedcba9876543210fedcba9876543210")
	cfg.JWT.ClaimsIV = []byte("0011223344556677")
	cfg.JWT.AccessTTL = 1800 * time.Second
	cfg.JWT.RefreshTTL = 604800 * time.Second
	cfg.Admin.SharedSecret = testAdminSecret
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEnv(t testing.TB, mutate func(*Config), sink EventSink) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	mem := memstore.New()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithMemberRepository(mem).
		WithHistoryRepository(mem).
		WithLockRepository(mem).
		WithEventSink(sink).
		WithClock(clock.Now)
	engine, err := b.Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	hash, err := engine.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mem.PutMember(store.Member{
		UID:          testMemberUID,
		Identifier:   testIdentifier,
		PasswordHash: hash,
		Roles:        []string{"ROLE_USER", "ROLE_HOST"},
	})

	env := &testEnv{engine: engine, mr: mr, rdb: rdb, store: mem, clock: clock}
	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return env
}

func (env *testEnv) login(t testing.TB) TokenPair {
	t.Helper()
	pair, err := env.engine.Login(t.Context(), testIdentifier, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return pair
}

func bearer(token string) string {
	return "Bearer " + token
}
