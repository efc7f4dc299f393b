package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	rentalAuth "github.com/MrEthical07/rentalAuth"
	"github.com/MrEthical07/rentalAuth/store"
	"github.com/MrEthical07/rentalAuth/store/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type tokenState struct {
	header  string
	revoked bool
}

func main() {
	var (
		members     = flag.Int("members", 200, "number of members to seed")
		logins      = flag.Int("logins", 10000, "number of access tokens to issue")
		revokeEvery = flag.Int("revoke-every", 10, "log out every Nth token (0 disables)")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "authenticate calls to run")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "loadtest:", "force-expire key prefix")
	)
	flag.Parse()

	if *members <= 0 || *logins <= 0 || *concurrency <= 0 || *ops <= 0 || *revokeEvery < 0 {
		fmt.Fprintln(os.Stderr, "members, logins, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	mem := memstore.New()
	engine, err := buildEngine(client, mem, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d tokens for %d members...\n", *logins, *members)
	startSeed := time.Now()
	states, err := seed(ctx, engine, mem, *members, *logins, *revokeEvery)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authStats := runAuthenticatePhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("authenticate", authStats)
	snap := engine.MetricsSnapshot()
	fmt.Printf("revoked hits=%d registry errors=%d\n",
		snap.Counters[rentalAuth.MetricAuthenticateRevoked],
		snap.Counters[rentalAuth.MetricRegistryUnavailable])
}

const seedPassword = "loadtest-password"

func buildEngine(client redis.UniversalClient, mem *memstore.Store, prefix string) (*rentalAuth.Engine, error) {
	cfg := rentalAuth.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-secret-loadtest-secret!")
	cfg.JWT.Issuer = "rental-auth-loadtest"
	cfg.JWT.ClaimsKey = []byte("loadtest-claims-key-32-bytes!!!!")
	cfg.JWT.ClaimsIV = []byte("loadtest-iv-16b!")
	cfg.ForceExpire.KeyPrefix = prefix
	cfg.Metrics.Enabled = true
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	return rentalAuth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithMemberRepository(mem).
		WithHistoryRepository(mem).
		WithLockRepository(mem).
		Build()
}

func identifierFor(i int) string {
	return fmt.Sprintf("member-%d@loadtest.local", i)
}

// seed registers members, logs each in round-robin and logs out every
// revokeEvery-th token so the registry holds a realistic share of entries.
func seed(ctx context.Context, engine *rentalAuth.Engine, mem *memstore.Store, members, logins, revokeEvery int) ([]tokenState, error) {
	hash, err := engine.HashPassword(seedPassword)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= members; i++ {
		mem.PutMember(store.Member{
			UID:          int64(i),
			Identifier:   identifierFor(i),
			PasswordHash: hash,
			Roles:        []string{"ROLE_USER"},
		})
	}

	states := make([]tokenState, logins)
	for i := 0; i < logins; i++ {
		pair, err := engine.Login(ctx, identifierFor(i%members+1), seedPassword)
		if err != nil {
			return nil, fmt.Errorf("login %d: %w", i, err)
		}
		header := pair.TokenType + " " + pair.AccessToken
		states[i] = tokenState{header: header}
		if revokeEvery > 0 && i%revokeEvery == 0 {
			if err := engine.Logout(ctx, header); err != nil {
				return nil, fmt.Errorf("logout %d: %w", i, err)
			}
			states[i].revoked = true
		}
	}
	return states, nil
}

func runAuthenticatePhase(ctx context.Context, engine *rentalAuth.Engine, states []tokenState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := states[r.Intn(len(states))]
				t0 := time.Now()
				_, err := engine.Authenticate(ctx, state.header)
				d := time.Since(t0)
				// A revoked token that authenticates is the failure that matters.
				if (err == nil) == state.revoked {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
