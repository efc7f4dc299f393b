//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"testing"
	"time"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	"github.com/MrEthical07/rentalAuth/store"
	"github.com/MrEthical07/rentalAuth/store/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const (
	hostUID      = 42
	hostLogin    = "host@example.com"
	adminUID     = 1
	adminLogin   = "ops@example.com"
	testPassword = "correct-password-123"
	adminSecret  = "admin-shared-secret-0001"
)

// redisMode describes which Redis backend a suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes returns miniredis, plus a real server when REDIS_ADDR is set.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{{
		name: "miniredis",
		setup: func(t *testing.T) redis.UniversalClient {
			t.Helper()
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return rdb
		},
	}}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				t.Cleanup(func() {
					rdb.FlushDB(context.Background())
					_ = rdb.Close()
				})
				return rdb
			},
		})
	}
	return modes
}

func testConfig() rentalAuth.Config {
	cfg := rentalAuth.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.JWT.Issuer = "rental-auth"
	cfg.JWT.ClaimsKey = []byte("fedcba9876543210fedcba9876543210")
	cfg.JWT.ClaimsIV = []byte("0011223344556677")
	cfg.Admin.SharedSecret = adminSecret
	cfg.ForceExpire.KeyPrefix = "it:"
	cfg.Metrics.Enabled = true
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

// newEngine builds an engine over rdb and a seeded in-memory store holding a
// host and an admin member.
func newEngine(t *testing.T, rdb redis.UniversalClient) (*rentalAuth.Engine, *memstore.Store) {
	t.Helper()
	mem := memstore.New()
	engine, err := rentalAuth.New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithMemberRepository(mem).
		WithHistoryRepository(mem).
		WithLockRepository(mem).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	hash, err := engine.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	mem.PutMember(store.Member{UID: hostUID, Identifier: hostLogin, PasswordHash: hash, Roles: []string{"ROLE_USER", "ROLE_HOST"}})
	mem.PutMember(store.Member{UID: adminUID, Identifier: adminLogin, PasswordHash: hash, Roles: []string{"ROLE_USER", "ROLE_ADMIN"}})
	return engine, mem
}

func login(t *testing.T, engine *rentalAuth.Engine, identifier string) rentalAuth.TokenPair {
	t.Helper()
	pair, err := engine.Login(context.Background(), identifier, testPassword)
	if err != nil {
		t.Fatalf("login %s: %v", identifier, err)
	}
	return pair
}

func bearer(token string) string { return "Bearer " + token }
