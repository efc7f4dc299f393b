package store

import (
	"errors"
	"time"
)

// TokenTypeBearer is the only token type written to history rows.
const TokenTypeBearer = "Bearer"

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("store: not found")

// TokenHistory is one issued access/refresh pair.
type TokenHistory struct {
	ID               int64
	MemberUID        int64
	TokenType        string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	LoginAt          time.Time
	LogoutAt         *time.Time
	Deleted          bool
}

// Active reports whether the pair has neither been logged out nor soft-deleted.
func (h TokenHistory) Active() bool {
	return h.LogoutAt == nil && !h.Deleted
}

// MemberLock is one lock window placed on a member account.
type MemberLock struct {
	ID         int64
	MemberUID  int64
	LockStart  time.Time
	LockEnd    *time.Time // nil locks indefinitely
	ReasonCode string
	ReasonText string
	ReleasedAt *time.Time
	CreatedAt  time.Time
}

// ActiveAt reports whether the lock applies at now.
func (l MemberLock) ActiveAt(now time.Time) bool {
	if now.Before(l.LockStart) {
		return false
	}
	if l.LockEnd != nil && !now.Before(*l.LockEnd) {
		return false
	}
	if l.ReleasedAt != nil && !l.ReleasedAt.After(now) {
		return false
	}
	return true
}

// Member is the read-only view of an account used for login and reissue.
type Member struct {
	UID          int64
	Identifier   string
	PasswordHash string
	Roles        []string
	Deleted      bool
}
