package rate

import "errors"

var (
	// ErrRateLimited means the identifier has too many recent failed logins.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis command failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
