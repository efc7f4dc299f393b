package flows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/rentalAuth/forceexpire"
	"github.com/MrEthical07/rentalAuth/store"
)

// ExpireAllResult reports how many access tokens were force-expired and how
// many history rows were stamped.
type ExpireAllResult struct {
	Expired   int
	LoggedOut int
	Err       error
}

// ExpireAllDeps captures force-expire-all dependencies.
type ExpireAllDeps struct {
	Registry Registry
	History  store.HistoryRepository
	Now      func() time.Time
	Warn     func(string, ...any)
}

// RunExpireAll force-expires every unexpired access token of uid and stamps
// the logout time on all of uid's active history rows, including rows whose
// access token has already run out, so their refresh tokens cannot be used
// for reissue. Running it twice is harmless: the second run finds no active
// rows.
func RunExpireAll(ctx context.Context, uid int64, deps ExpireAllDeps) ExpireAllResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	rows, err := deps.History.FindAllActiveForMember(ctx, uid)
	if err != nil {
		return ExpireAllResult{Err: fmt.Errorf("list active history: %w", err)}
	}
	if len(rows) == 0 {
		return ExpireAllResult{}
	}

	now := deps.Now()
	items := make([]forceexpire.Item, 0, len(rows))
	for _, row := range rows {
		if ttl := row.AccessExpiresAt.Sub(now); ttl > 0 {
			items = append(items, forceexpire.Item{
				Key: RegistryKey(row.TokenType, row.AccessToken),
				TTL: ttl,
			})
		}
	}
	expired, err := deps.Registry.PutMany(ctx, items)
	if err != nil {
		// rows stay active so a retry picks them up again
		return ExpireAllResult{Err: err}
	}

	var errs []error
	stamped := 0
	for _, row := range rows {
		err := deps.History.MarkLoggedOut(ctx, row.ID, now)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			warn(deps.Warn, "history logout stamp failed", "member_uid", uid, "history_id", row.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		stamped++
	}
	return ExpireAllResult{Expired: expired, LoggedOut: stamped, Err: errors.Join(errs...)}
}
