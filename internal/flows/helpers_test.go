package flows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/rentalAuth/forceexpire"
	"github.com/MrEthical07/rentalAuth/jwt"
	"github.com/MrEthical07/rentalAuth/store"
	"github.com/MrEthical07/rentalAuth/store/memstore"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	testKey    = []byte("fedcba9876543210fedcba9876543210")
	testIV     = []byte("0011223344556677")
)

const (
	testIssuer     = "rental-auth"
	testAccessTTL  = 1800 * time.Second
	testRefreshTTL = 604800 * time.Second
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

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRegistry is a clock-aware map standing in for the Redis registry.
type fakeRegistry struct {
	mu      sync.Mutex
	clock   *testClock
	entries map[string]time.Time // key -> eviction time
	fail    error
}

func newFakeRegistry(clock *testClock) *fakeRegistry {
	return &fakeRegistry{clock: clock, entries: map[string]time.Time{}}
}

func (r *fakeRegistry) Get(_ context.Context, key string) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return time.Time{}, false, r.fail
	}
	until, ok := r.entries[key]
	if !ok || !r.clock.Now().Before(until) {
		return time.Time{}, false, nil
	}
	return r.clock.Now(), true, nil
}

func (r *fakeRegistry) Put(ctx context.Context, key string, ttl time.Duration) error {
	_, err := r.PutMany(ctx, []forceexpire.Item{{Key: key, TTL: ttl}})
	return err
}

func (r *fakeRegistry) PutMany(_ context.Context, items []forceexpire.Item) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return 0, r.fail
	}
	n := 0
	for _, it := range items {
		if it.TTL <= 0 {
			continue
		}
		r.entries[it.Key] = r.clock.Now().Add(it.TTL)
		n++
	}
	return n, nil
}

func (r *fakeRegistry) has(key string) bool {
	_, ok, _ := r.Get(context.Background(), key)
	return ok
}

func (r *fakeRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// plainVerifier treats "plain:<password>" as the hash of <password>.
type plainVerifier struct{ calls int }

func (v *plainVerifier) Verify(plain, encoded string) (bool, error) {
	v.calls++
	if !strings.HasPrefix(encoded, "plain:") {
		return false, errors.New("bad hash")
	}
	return strings.TrimPrefix(encoded, "plain:") == plain, nil
}

type harness struct {
	clock    *testClock
	codec    *jwt.Codec
	registry *fakeRegistry
	store    *memstore.Store
	verifier *plainVerifier
	deps     Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	codec, err := jwt.NewCodec(jwt.Config{
		Secret:    testSecret,
		Issuer:    testIssuer,
		ClaimsKey: testKey,
		ClaimsIV:  testIV,
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	h := &harness{
		clock:    clock,
		codec:    codec,
		registry: newFakeRegistry(clock),
		store:    memstore.New(),
		verifier: &plainVerifier{},
	}
	h.store.PutMember(store.Member{UID: 42, Identifier: "host@example.com", PasswordHash: "plain:s3cret-pass", Roles: []string{"ROLE_USER", "ROLE_HOST"}})

	issuer := PairIssuer{Codec: codec, History: h.store, AccessTTL: testAccessTTL, RefreshTTL: testRefreshTTL, Now: clock.Now}
	auth := AuthenticateDeps{
		Codec:             codec,
		Registry:          h.registry,
		Secret:            testSecret,
		Issuer:            testIssuer,
		MaxAccessLifetime: testAccessTTL,
	}
	h.deps = Deps{
		Authenticate: auth,
		Login: LoginDeps{
			Members:   h.store,
			Locks:     h.store,
			Passwords: h.verifier,
			Issuer:    issuer,
			DecoyHash: "plain:decoy",
			Now:       clock.Now,
		},
		Reissue: ReissueDeps{
			Codec:      codec,
			Registry:   h.registry,
			History:    h.store,
			Members:    h.store,
			Issuer:     issuer,
			Secret:     testSecret,
			IssuerName: testIssuer,
			Now:        clock.Now,
		},
		Logout: LogoutDeps{
			Authenticate: auth,
			History:      h.store,
			Now:          clock.Now,
		},
		ExpireAll: ExpireAllDeps{
			Registry: h.registry,
			History:  h.store,
			Now:      clock.Now,
		},
	}
	return h
}

func (h *harness) login(t *testing.T) TokenPair {
	t.Helper()
	res := RunLogin(context.Background(), "host@example.com", "s3cret-pass", h.deps.Login)
	if res.Failure != LoginFailureNone {
		t.Fatalf("login failed: %v %v", res.Failure, res.Err)
	}
	return res.Pair
}

func bearer(token string) string {
	return "Bearer " + token
}
