package rentalAuth

import (
	"context"
	"crypto/subtle"
	"strconv"

	"github.com/MrEthical07/rentalAuth/internal/flows"
)

// Login verifies identifier and password and issues a token pair.
//
// A locked member gets a *LockedError (matching ErrLocked) describing the
// newest active lock; no tokens are issued and nothing is written. Unknown,
// withdrawn and wrong-password logins all return ErrInvalidCredentials. With
// the throttle enabled, an identifier over its failure budget gets
// ErrLoginThrottled before any lookup.
func (e *Engine) Login(ctx context.Context, identifier, password string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	ctx, cancel := e.withStoreTimeout(ctx)
	defer cancel()

	res := e.flows.Login(ctx, identifier, password)
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emit(ctx, EventLoginSuccess, res.Member.UID, nil)
		return toTokenPair(res.Pair), nil

	case flows.LoginFailureInvalidCredentials:
		e.metricInc(MetricLoginFailure)
		if res.Err != nil {
			e.logger.Warn("stored password hash unreadable", "member_uid", res.Member.UID, "error", res.Err)
		}
		return TokenPair{}, ErrInvalidCredentials

	case flows.LoginFailureThrottled:
		e.metricInc(MetricLoginThrottled)
		return TokenPair{}, ErrLoginThrottled

	case flows.LoginFailureLocked:
		e.metricInc(MetricLoginLocked)
		e.emit(ctx, EventLoginLocked, res.Member.UID, map[string]string{"reason_code": res.Lock.ReasonCode})
		return TokenPair{}, &LockedError{Lock: LockInfo{
			Locked:     true,
			LockStart:  res.Lock.LockStart,
			LockEnd:    res.Lock.LockEnd,
			ReasonCode: res.Lock.ReasonCode,
			ReasonText: res.Lock.ReasonText,
		}}

	default:
		e.metricInc(MetricLoginFailure)
		e.logger.Error("login failed", "error", res.Err)
		return TokenPair{}, storeUnavailable(res.Err)
	}
}

// Reissue exchanges a refresh token and the access header it was issued with
// for a new pair. The old access token and the consumed refresh token are
// force-expired. Use ReissueCode to map the error to an api-result-code.
func (e *Engine) Reissue(ctx context.Context, accessHeader, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	ctx, cancel := e.withStoreTimeout(ctx)
	defer cancel()

	res := e.flows.Reissue(ctx, accessHeader, refreshToken)
	if res.RegistryErr != nil {
		e.metricInc(MetricRegistryUnavailable)
	}
	if res.Failure != flows.ReissueFailureNone {
		e.metricInc(MetricReissueFailure)
		err := reissueFailureError(res)
		if res.Failure == flows.ReissueFailureStore || res.Failure == flows.ReissueFailureIssue {
			e.logger.Error("reissue failed", "member_uid", res.MemberUID, "error", res.Err)
		}
		return TokenPair{}, err
	}

	e.metricInc(MetricReissueSuccess)
	e.metrics.Add(MetricTokensForceExpired, uint64(res.Expired))
	e.emit(ctx, EventTokenReissued, res.MemberUID, nil)
	return toTokenPair(res.Pair), nil
}

func reissueFailureError(res flows.ReissueResult) error {
	switch res.Failure {
	case flows.ReissueFailureInvalidRefresh:
		if res.Revoked {
			return ErrRevoked
		}
		return ErrMalformedCredential
	case flows.ReissueFailureExpiredRefresh:
		return ErrTokenExpired
	case flows.ReissueFailurePairing:
		return ErrUsageMismatch
	case flows.ReissueFailureMemberGone:
		return ErrMemberNotFound
	case flows.ReissueFailureLoggedOut:
		return ErrAlreadyLoggedOut
	default:
		return storeUnavailable(res.Err)
	}
}

// Logout force-expires the presented access token and stamps its history row.
// A token that would not pass Authenticate cannot be logged out.
func (e *Engine) Logout(ctx context.Context, accessHeader string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	ctx, cancel := e.withStoreTimeout(ctx)
	defer cancel()

	res := e.flows.Logout(ctx, accessHeader)
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogout)
		e.metrics.Add(MetricTokensForceExpired, 1)
		e.emit(ctx, EventTokenLogout, res.MemberUID, nil)
		return nil
	case flows.LogoutFailureInvalidToken:
		return authenticateFailureError(res.Auth.Failure)
	default:
		e.logger.Error("logout failed", "member_uid", res.MemberUID, "error", res.Err)
		return storeUnavailable(res.Err)
	}
}

// ForceExpireAll revokes every live access token of uid and closes all of the
// member's history rows. It is idempotent and is driven by password changes,
// role changes and account deletion.
func (e *Engine) ForceExpireAll(ctx context.Context, uid int64) (ExpireAllResult, error) {
	if !e.ready() {
		return ExpireAllResult{}, ErrEngineNotReady
	}
	ctx, cancel := e.withStoreTimeout(ctx)
	defer cancel()

	res := e.flows.ExpireAll(ctx, uid)
	out := ExpireAllResult{MemberUID: uid, Expired: res.Expired, LoggedOut: res.LoggedOut}
	e.metricInc(MetricExpireAll)
	e.metrics.Add(MetricTokensForceExpired, uint64(res.Expired))
	if res.Err != nil {
		e.logger.Error("force-expire-all incomplete", "member_uid", uid, "expired", res.Expired, "logged_out", res.LoggedOut, "error", res.Err)
		return out, storeUnavailable(res.Err)
	}
	if res.LoggedOut > 0 {
		e.emit(ctx, EventTokensExpired, uid, map[string]string{
			"expired":    strconv.Itoa(res.Expired),
			"logged_out": strconv.Itoa(res.LoggedOut),
		})
	}
	return out, nil
}

// AdminForceExpireByUID is ForceExpireAll gated by the admin shared secret
// instead of a bearer token. An empty configured secret disables it.
func (e *Engine) AdminForceExpireByUID(ctx context.Context, secret string, uid int64) (ExpireAllResult, error) {
	if !e.ready() {
		return ExpireAllResult{}, ErrEngineNotReady
	}
	want := e.config.Admin.SharedSecret
	if want == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(want)) != 1 {
		e.metricInc(MetricAdminSecretRejected)
		e.logger.Warn("admin force-expire rejected", "member_uid", uid)
		return ExpireAllResult{}, ErrAdminSecret
	}
	e.logger.Info("admin force-expire", "member_uid", uid)
	return e.ForceExpireAll(ctx, uid)
}
