package rentalAuth

import (
	"time"

	"github.com/MrEthical07/rentalAuth/permission"
)

// Principal is the authenticated caller of one request.
type Principal struct {
	MemberUID   int64
	Subject     string
	Authorities permission.Authorities
}

// TokenPair is an issued access/refresh pair with its expiries.
type TokenPair struct {
	TokenType        string    `json:"tokenType"`
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// LockInfo describes the lock window that refused a login.
type LockInfo struct {
	Locked     bool       `json:"locked"`
	LockStart  time.Time  `json:"lockStart"`
	LockEnd    *time.Time `json:"lockEnd,omitempty"`
	ReasonCode string     `json:"reasonCode"`
	ReasonText string     `json:"reasonText,omitempty"`
}

// ForceExpiredEntry is one denylisted token as listed for administrators.
// Token values are truncated.
type ForceExpiredEntry struct {
	TokenType string        `json:"tokenType"`
	Token     string        `json:"token"`
	ExpiredAt time.Time     `json:"expiredAt"`
	TTL       time.Duration `json:"ttl"`
}

// ExpireAllResult reports the outcome of a force-expire-all sweep.
type ExpireAllResult struct {
	MemberUID int64 `json:"memberUid"`
	Expired   int   `json:"expired"`
	LoggedOut int   `json:"loggedOut"`
}
