package rentalAuth

import "errors"

var (
	// ErrMalformedCredential means the header or token could not be parsed.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrSignatureInvalid means HS256 verification failed.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired means the token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
	// ErrUsageMismatch covers a refresh token presented as access (or the
	// reverse) and an access token that does not belong to the refresh token.
	ErrUsageMismatch = errors.New("token usage mismatch")
	// ErrIssuerMismatch means the iss claim is not the configured issuer.
	ErrIssuerMismatch = errors.New("token issuer mismatch")
	// ErrRevoked means the token is in the force-expire registry.
	ErrRevoked = errors.New("token revoked")
	// ErrMemberNotFound means the token subject no longer exists or has withdrawn.
	ErrMemberNotFound = errors.New("member not found")
	// ErrAlreadyLoggedOut means the access token's history row carries a logout time.
	ErrAlreadyLoggedOut = errors.New("already logged out")
	// ErrLocked means the member has an active lock window. See [LockedError].
	ErrLocked = errors.New("member locked")
	// ErrInvalidCredentials is returned by Login for any identifier/password failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginThrottled means the identifier has too many recent failed logins.
	ErrLoginThrottled = errors.New("too many failed logins")
	// ErrAdminSecret is returned when the admin shared secret does not match.
	ErrAdminSecret = errors.New("admin secret mismatch")
	// ErrStoreUnavailable wraps Redis and database failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned by a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not ready")
)

// LockedError carries the lock window that refused a login. It matches
// ErrLocked with errors.Is.
type LockedError struct {
	Lock LockInfo
}

func (e *LockedError) Error() string {
	return ErrLocked.Error()
}

func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// ReissueCode returns the api-result-code for a Reissue error, or 0 when err
// is nil or has no dedicated code.
func ReissueCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrTokenExpired):
		return 2
	case errors.Is(err, ErrUsageMismatch):
		return 3
	case errors.Is(err, ErrMemberNotFound):
		return 4
	case errors.Is(err, ErrAlreadyLoggedOut):
		return 5
	case errors.Is(err, ErrMalformedCredential),
		errors.Is(err, ErrSignatureInvalid),
		errors.Is(err, ErrIssuerMismatch),
		errors.Is(err, ErrRevoked):
		return 1
	default:
		return 0
	}
}
