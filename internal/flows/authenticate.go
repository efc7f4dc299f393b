package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/rentalAuth/jwt"
)

// AuthenticateFailureKind classifies why a credential was not accepted.
type AuthenticateFailureKind int

const (
	AuthenticateFailureNone AuthenticateFailureKind = iota
	AuthenticateFailureNoCredential
	AuthenticateFailureMalformed
	AuthenticateFailureRevoked
	AuthenticateFailureRegistryDown
	AuthenticateFailureScheme
	AuthenticateFailureFormat
	AuthenticateFailureUsage
	AuthenticateFailureLifetime
	AuthenticateFailureIssuer
	AuthenticateFailureSignature
	AuthenticateFailureExpired
)

// AuthenticateResult carries the decoded access token or the failure kind.
type AuthenticateResult struct {
	Failure AuthenticateFailureKind
	Err     error
	Scheme  string
	Token   string
	Claims  *jwt.Decoded
	// RegistryErr is set when the revocation lookup failed, including when the
	// failure was tolerated.
	RegistryErr error
}

// AuthenticateDeps captures access-token validation dependencies.
type AuthenticateDeps struct {
	Codec             *jwt.Codec
	Registry          Registry
	Secret            []byte
	Issuer            string
	MaxAccessLifetime time.Duration
	// FailClosed rejects the credential when the registry cannot be reached.
	FailClosed bool
	Warn       func(string, ...any)
}

// RunAuthenticate validates an Authorization header value. Checks run in a
// fixed order and stop at the first failure.
func RunAuthenticate(ctx context.Context, header string, deps AuthenticateDeps) AuthenticateResult {
	if strings.TrimSpace(header) == "" {
		return AuthenticateResult{Failure: AuthenticateFailureNoCredential}
	}
	scheme, token, ok := SplitCredential(header)
	if !ok {
		return AuthenticateResult{Failure: AuthenticateFailureMalformed}
	}
	res := AuthenticateResult{Scheme: scheme, Token: token}

	_, revoked, err := deps.Registry.Get(ctx, RegistryKey(scheme, token))
	if err != nil {
		res.RegistryErr = err
		if deps.Warn != nil {
			deps.Warn("force-expire lookup failed", "error", err, "fail_closed", deps.FailClosed)
		}
		if deps.FailClosed {
			res.Failure = AuthenticateFailureRegistryDown
			res.Err = err
			return res
		}
	}
	if revoked {
		res.Failure = AuthenticateFailureRevoked
		return res
	}

	if !strings.EqualFold(scheme, "bearer") {
		res.Failure = AuthenticateFailureScheme
		return res
	}

	claims, failure, err := checkToken(token, jwt.UsageAccess, deps.Codec, deps.Secret, deps.Issuer, deps.MaxAccessLifetime)
	if failure != AuthenticateFailureNone {
		res.Failure = failure
		res.Err = err
		return res
	}
	res.Claims = claims
	return res
}

// checkToken runs the codec-level checks shared by the filter and reissue.
// A zero maxLifetime skips the lifetime ceiling.
func checkToken(token string, want jwt.Usage, codec *jwt.Codec, secret []byte, issuer string, maxLifetime time.Duration) (*jwt.Decoded, AuthenticateFailureKind, error) {
	typ, err := codec.TokenType(token)
	if err != nil {
		return nil, AuthenticateFailureMalformed, err
	}
	if !strings.EqualFold(typ, jwt.FormatJWT) {
		return nil, AuthenticateFailureFormat, nil
	}

	usage, err := codec.TokenUsage(token)
	if err != nil {
		return nil, AuthenticateFailureMalformed, err
	}
	if usage != want {
		return nil, AuthenticateFailureUsage, nil
	}

	remain, err := codec.RemainSeconds(token)
	if err != nil {
		return nil, AuthenticateFailureMalformed, err
	}
	if maxLifetime > 0 && remain > int64(maxLifetime/time.Second) {
		return nil, AuthenticateFailureLifetime, nil
	}

	iss, err := codec.Issuer(token)
	if err != nil {
		return nil, AuthenticateFailureMalformed, err
	}
	if iss != issuer {
		return nil, AuthenticateFailureIssuer, nil
	}

	if !codec.ValidateSignature(token, secret) {
		return nil, AuthenticateFailureSignature, nil
	}

	// recomputed so a token expiring between the two reads is still rejected
	remain, err = codec.RemainSeconds(token)
	if err != nil {
		return nil, AuthenticateFailureMalformed, err
	}
	if remain <= 0 {
		return nil, AuthenticateFailureExpired, nil
	}

	claims, err := codec.Decode(token)
	if err != nil {
		return nil, AuthenticateFailureMalformed, err
	}
	return claims, AuthenticateFailureNone, nil
}
