package rentalAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/rentalAuth/internal/flows"
	"github.com/MrEthical07/rentalAuth/permission"
)

// Authenticate validates an Authorization header value and returns the
// caller's principal. Every failure means "unauthenticated"; the returned
// error only says why, for logging and metrics.
//
//	Performance: one Redis GET, no writes.
func (e *Engine) Authenticate(ctx context.Context, header string) (Principal, error) {
	if !e.ready() {
		return Principal{}, ErrEngineNotReady
	}
	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := e.flows.Authenticate(ctx, header)
	if res.RegistryErr != nil {
		e.metricInc(MetricRegistryUnavailable)
	}
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}

	if res.Failure != flows.AuthenticateFailureNone {
		e.metricInc(authenticateFailureMetric(res.Failure))
		return Principal{}, authenticateFailureError(res.Failure)
	}

	e.metricInc(MetricAuthenticateSuccess)
	return Principal{
		MemberUID:   res.Claims.UID,
		Subject:     res.Claims.Subject,
		Authorities: permission.ParseAuthorities(res.Claims.Roles),
	}, nil
}

func authenticateFailureError(kind flows.AuthenticateFailureKind) error {
	switch kind {
	case flows.AuthenticateFailureRevoked:
		return ErrRevoked
	case flows.AuthenticateFailureRegistryDown:
		return ErrStoreUnavailable
	case flows.AuthenticateFailureUsage:
		return ErrUsageMismatch
	case flows.AuthenticateFailureIssuer:
		return ErrIssuerMismatch
	case flows.AuthenticateFailureSignature:
		return ErrSignatureInvalid
	case flows.AuthenticateFailureExpired:
		return ErrTokenExpired
	default:
		return ErrMalformedCredential
	}
}

func authenticateFailureMetric(kind flows.AuthenticateFailureKind) MetricID {
	switch kind {
	case flows.AuthenticateFailureNoCredential:
		return MetricAuthenticateNoCredential
	case flows.AuthenticateFailureMalformed:
		return MetricAuthenticateMalformed
	case flows.AuthenticateFailureRevoked:
		return MetricAuthenticateRevoked
	case flows.AuthenticateFailureRegistryDown:
		return MetricRegistryUnavailable
	case flows.AuthenticateFailureSignature:
		return MetricAuthenticateSignature
	case flows.AuthenticateFailureExpired:
		return MetricAuthenticateExpired
	default:
		return MetricAuthenticateRejected
	}
}
