//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	"github.com/MrEthical07/rentalAuth/store/postgres"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// TestPostgresLifecycle runs the token lifecycle against a real database.
// It is skipped unless RENTALAUTH_TEST_DATABASE_DSN points at a disposable
// Postgres database.
func TestPostgresLifecycle(t *testing.T) {
	dsn := os.Getenv("RENTALAUTH_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("RENTALAUTH_TEST_DATABASE_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Running the migrations twice is a no-op.
	if err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	engine, err := rentalAuth.New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithMemberRepository(postgres.NewMemberRepository(db)).
		WithHistoryRepository(postgres.NewHistoryRepository(db)).
		WithLockRepository(postgres.NewLockRepository(db)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	hash, err := engine.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	identifier := "pg-" + time.Now().Format("150405.000000") + "@example.com"
	var uid int64
	err = db.QueryRowContext(ctx,
		`INSERT INTO member (identifier, password_hash, roles) VALUES ($1, $2, $3) RETURNING uid`,
		identifier, hash, "ROLE_USER,ROLE_HOST").Scan(&uid)
	if err != nil {
		t.Fatalf("insert member: %v", err)
	}

	pair, err := engine.Login(ctx, identifier, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := engine.Authenticate(ctx, bearer(pair.AccessToken))
	if err != nil || p.MemberUID != uid {
		t.Fatalf("authenticate: %+v %v", p, err)
	}

	next, err := engine.Reissue(ctx, bearer(pair.AccessToken), pair.RefreshToken)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if err := engine.Logout(ctx, bearer(next.AccessToken)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := engine.Reissue(ctx, bearer(next.AccessToken), next.RefreshToken); !errors.Is(err, rentalAuth.ErrAlreadyLoggedOut) {
		t.Fatalf("expected already logged out, got %v", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO member_lock (member_uid, lock_start, reason_code) VALUES ($1, now() - interval '1 minute', 'MANUAL')`,
		uid); err != nil {
		t.Fatalf("insert lock: %v", err)
	}
	var locked *rentalAuth.LockedError
	if _, err := engine.Login(ctx, identifier, testPassword); !errors.As(err, &locked) || locked.Lock.ReasonCode != "MANUAL" {
		t.Fatalf("expected lock, got %v", err)
	}

	if _, err := db.ExecContext(ctx, `UPDATE member SET withdrawn_at = now() WHERE uid = $1`, uid); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := engine.Login(ctx, identifier, testPassword); !errors.Is(err, rentalAuth.ErrInvalidCredentials) {
		t.Fatalf("withdrawn member login: %v", err)
	}
}
