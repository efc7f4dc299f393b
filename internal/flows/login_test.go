package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/rentalAuth/internal/rate"
	"github.com/MrEthical07/rentalAuth/store"
)

func TestLoginIssuesPairAndHistory(t *testing.T) {
	h := newHarness(t)
	pair := h.login(t)

	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.AccessToken == pair.RefreshToken {
		t.Fatalf("unexpected pair: %+v", pair)
	}
	if !pair.AccessExpiresAt.Equal(h.clock.Now().Add(testAccessTTL)) || !pair.RefreshExpiresAt.Equal(h.clock.Now().Add(testRefreshTTL)) {
		t.Fatalf("unexpected expiries: %v %v", pair.AccessExpiresAt, pair.RefreshExpiresAt)
	}
	rows := h.store.History(42)
	if len(rows) != 1 || rows[0].AccessToken != pair.AccessToken || rows[0].TokenType != store.TokenTypeBearer {
		t.Fatalf("unexpected history: %+v", rows)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if res := RunLogin(ctx, "host@example.com", "wrong", h.deps.Login); res.Failure != LoginFailureInvalidCredentials {
		t.Fatalf("wrong password: %v", res.Failure)
	}
	before := h.verifier.calls
	if res := RunLogin(ctx, "nobody@example.com", "whatever", h.deps.Login); res.Failure != LoginFailureInvalidCredentials {
		t.Fatalf("unknown member: %v", res.Failure)
	}
	if h.verifier.calls != before+1 {
		t.Fatal("unknown member must still run one password verification")
	}

	h.store.PutMember(store.Member{UID: 9, Identifier: "gone@example.com", PasswordHash: "plain:gone-pass", Deleted: true})
	if res := RunLogin(ctx, "gone@example.com", "gone-pass", h.deps.Login); res.Failure != LoginFailureInvalidCredentials {
		t.Fatalf("withdrawn member: %v", res.Failure)
	}
	if n := len(h.store.History(42)) + len(h.store.History(9)); n != 0 {
		t.Fatalf("failed logins must not write history, got %d rows", n)
	}
}

func TestLoginLockedMemberGetsNoTokens(t *testing.T) {
	h := newHarness(t)
	now := h.clock.Now()
	end := now.Add(24 * time.Hour)
	h.store.AddLock(store.MemberLock{MemberUID: 42, LockStart: now.Add(-time.Hour), LockEnd: &end, ReasonCode: "ABUSE", ReasonText: "reported listing", CreatedAt: now.Add(-time.Hour)})

	res := RunLogin(context.Background(), "host@example.com", "s3cret-pass", h.deps.Login)
	if res.Failure != LoginFailureLocked || res.Lock == nil || res.Lock.ReasonCode != "ABUSE" {
		t.Fatalf("expected lock info, got %+v", res)
	}
	if res.Pair.AccessToken != "" {
		t.Fatal("locked login must not return tokens")
	}
	if rows := h.store.History(42); len(rows) != 0 {
		t.Fatalf("locked login must not write history, got %d rows", len(rows))
	}

	h.clock.Advance(25 * time.Hour)
	if res := RunLogin(context.Background(), "host@example.com", "s3cret-pass", h.deps.Login); res.Failure != LoginFailureNone {
		t.Fatalf("login after lock window: %v", res.Failure)
	}
}

func TestLoginStoreFailure(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("db down")
	h.store.FailWith(boom)

	res := RunLogin(context.Background(), "host@example.com", "s3cret-pass", h.deps.Login)
	if res.Failure != LoginFailureStore || !errors.Is(res.Err, boom) {
		t.Fatalf("expected store failure, got %v %v", res.Failure, res.Err)
	}
}

type fakeThrottle struct {
	failures map[string]int64
	max      int64
	checkErr error
	resets   int
}

func (f *fakeThrottle) Check(_ context.Context, identifier string) error {
	if f.checkErr != nil {
		return f.checkErr
	}
	if f.failures[identifier] >= f.max {
		return rate.ErrRateLimited
	}
	return nil
}

func (f *fakeThrottle) RecordFailure(_ context.Context, identifier string) (int64, error) {
	f.failures[identifier]++
	return f.failures[identifier], nil
}

func (f *fakeThrottle) Reset(_ context.Context, identifier string) error {
	f.resets++
	delete(f.failures, identifier)
	return nil
}

func TestLoginThrottle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	throttle := &fakeThrottle{failures: map[string]int64{}, max: 2}
	deps := h.deps.Login
	deps.Throttle = throttle

	if res := RunLogin(ctx, "host@example.com", "s3cret-pass", deps); res.Failure != LoginFailureNone || throttle.resets != 1 {
		t.Fatalf("first login: %v resets=%d", res.Failure, throttle.resets)
	}
	for i := 0; i < 2; i++ {
		if res := RunLogin(ctx, "host@example.com", "wrong", deps); res.Failure != LoginFailureInvalidCredentials {
			t.Fatalf("attempt %d: %v", i, res.Failure)
		}
	}
	before := h.verifier.calls
	if res := RunLogin(ctx, "host@example.com", "s3cret-pass", deps); res.Failure != LoginFailureThrottled {
		t.Fatalf("expected throttled, got %v", res.Failure)
	}
	if h.verifier.calls != before {
		t.Fatal("throttled login must not verify the password")
	}

	// unknown identifiers are counted too
	RunLogin(ctx, "nobody@example.com", "x", deps)
	if throttle.failures["nobody@example.com"] != 1 {
		t.Fatalf("unknown identifier not counted: %v", throttle.failures)
	}

	// a throttle outage does not block logins
	throttle.checkErr = errors.New("redis down")
	if res := RunLogin(ctx, "host@example.com", "s3cret-pass", deps); res.Failure != LoginFailureNone {
		t.Fatalf("login during throttle outage: %v", res.Failure)
	}
}
