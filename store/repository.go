package store

import (
	"context"
	"time"
)

// HistoryRepository persists issued token pairs.
type HistoryRepository interface {
	// FindActiveByToken returns the row whose access token matches and whose
	// logout time is unset, or ErrNotFound.
	FindActiveByToken(ctx context.Context, tokenType, accessToken string) (*TokenHistory, error)
	// FindAllActiveForMember returns every row of uid with no logout time.
	FindAllActiveForMember(ctx context.Context, uid int64) ([]TokenHistory, error)
	// Save inserts row and assigns row.ID.
	Save(ctx context.Context, row *TokenHistory) error
	// MarkLoggedOut sets the logout time of row id if it is still unset. It
	// returns ErrNotFound when no active row was stamped.
	MarkLoggedOut(ctx context.Context, id int64, at time.Time) error
}

// LockRepository reads member lock windows.
type LockRepository interface {
	// FindActiveLocks returns the locks of uid active at now, newest first.
	FindActiveLocks(ctx context.Context, uid int64, now time.Time) ([]MemberLock, error)
}

// MemberRepository reads member accounts. Unknown members yield ErrNotFound;
// withdrawn members are returned with Deleted set.
type MemberRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (*Member, error)
	FindByUID(ctx context.Context, uid int64) (*Member, error)
}
