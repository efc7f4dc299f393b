package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/rentalAuth/internal/rate"
	"github.com/MrEthical07/rentalAuth/store"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalidCredentials
	LoginFailureLocked
	LoginFailureStore
	LoginFailureIssue
	LoginFailureThrottled
)

// LoginResult carries the issued pair or failure metadata. Lock is set only
// for LoginFailureLocked.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error
	Member  *store.Member
	Lock    *store.MemberLock
	Pair    TokenPair
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(plain, encoded string) (bool, error)
}

// LoginThrottle limits failed logins per identifier. Implemented by
// *rate.Limiter.
type LoginThrottle interface {
	Check(ctx context.Context, identifier string) error
	RecordFailure(ctx context.Context, identifier string) (int64, error)
	Reset(ctx context.Context, identifier string) error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Members   store.MemberRepository
	Locks     store.LockRepository
	Passwords PasswordVerifier
	Issuer    PairIssuer
	// DecoyHash is verified against when the identifier is unknown so both
	// outcomes cost one KDF run.
	DecoyHash string
	// Throttle is optional. Its Redis failures never block a login.
	Throttle LoginThrottle
	Now      func() time.Time
	Warn     func(string, ...any)
}

// RunLogin verifies credentials, refuses locked members and issues a pair.
// A locked member never gets a history row.
func RunLogin(ctx context.Context, identifier, password string, deps LoginDeps) LoginResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.Throttle != nil {
		if err := deps.Throttle.Check(ctx, identifier); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				return LoginResult{Failure: LoginFailureThrottled}
			}
			warn(deps.Warn, "login throttle check failed", "error", err)
		}
	}

	member, err := deps.Members.FindByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return LoginResult{Failure: LoginFailureStore, Err: err}
	}
	if member == nil || member.Deleted {
		if deps.DecoyHash != "" {
			_, _ = deps.Passwords.Verify(password, deps.DecoyHash)
		}
		recordFailure(ctx, identifier, deps)
		return LoginResult{Failure: LoginFailureInvalidCredentials}
	}

	ok, err := deps.Passwords.Verify(password, member.PasswordHash)
	if err != nil || !ok {
		recordFailure(ctx, identifier, deps)
		return LoginResult{Failure: LoginFailureInvalidCredentials, Err: err, Member: member}
	}

	locks, err := deps.Locks.FindActiveLocks(ctx, member.UID, deps.Now())
	if err != nil {
		return LoginResult{Failure: LoginFailureStore, Err: err, Member: member}
	}
	if len(locks) > 0 {
		lock := locks[0]
		return LoginResult{Failure: LoginFailureLocked, Member: member, Lock: &lock}
	}

	pair, err := deps.Issuer.IssueAndRecord(ctx, member)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Member: member}
	}
	if deps.Throttle != nil {
		if err := deps.Throttle.Reset(ctx, identifier); err != nil {
			warn(deps.Warn, "login throttle reset failed", "member_uid", member.UID, "error", err)
		}
	}
	return LoginResult{Member: member, Pair: pair}
}

func recordFailure(ctx context.Context, identifier string, deps LoginDeps) {
	if deps.Throttle == nil {
		return
	}
	if _, err := deps.Throttle.RecordFailure(ctx, identifier); err != nil {
		warn(deps.Warn, "login throttle update failed", "error", err)
	}
}
