package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/rentalAuth/store"
)

// LogoutFailureKind classifies logout failures.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureInvalidToken
	LogoutFailureStore
)

type LogoutResult struct {
	Failure   LogoutFailureKind
	Err       error
	Auth      AuthenticateResult
	MemberUID int64
}

// LogoutDeps captures single-device logout dependencies.
type LogoutDeps struct {
	Authenticate AuthenticateDeps
	History      store.HistoryRepository
	Now          func() time.Time
	Warn         func(string, ...any)
}

// RunLogout force-expires the presented access token and stamps the logout
// time on its history row. Only a token that would pass the filter can be
// logged out.
func RunLogout(ctx context.Context, accessHeader string, deps LogoutDeps) LogoutResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	auth := RunAuthenticate(ctx, accessHeader, deps.Authenticate)
	if auth.Failure != AuthenticateFailureNone {
		return LogoutResult{Failure: LogoutFailureInvalidToken, Err: auth.Err, Auth: auth}
	}
	uid := auth.Claims.UID

	ttl := auth.Claims.ExpiresAt.Sub(deps.Now())
	if err := deps.Authenticate.Registry.Put(ctx, RegistryKey(store.TokenTypeBearer, auth.Token), ttl); err != nil {
		return LogoutResult{Failure: LogoutFailureStore, Err: err, Auth: auth, MemberUID: uid}
	}

	row, err := deps.History.FindActiveByToken(ctx, store.TokenTypeBearer, auth.Token)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// already stamped by an earlier sweep
	case err != nil:
		warn(deps.Warn, "history lookup after logout failed", "member_uid", uid, "error", err)
	default:
		if err := deps.History.MarkLoggedOut(ctx, row.ID, deps.Now()); err != nil && !errors.Is(err, store.ErrNotFound) {
			warn(deps.Warn, "history logout stamp failed", "member_uid", uid, "history_id", row.ID, "error", err)
		}
	}
	return LogoutResult{Auth: auth, MemberUID: uid}
}

func warn(fn func(string, ...any), msg string, args ...any) {
	if fn != nil {
		fn(msg, args...)
	}
}
