package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MrEthical07/rentalAuth/store"
)

// LockRepository reads member_lock.
type LockRepository struct {
	db DBTX
}

var _ store.LockRepository = (*LockRepository)(nil)

func NewLockRepository(db DBTX) *LockRepository {
	return &LockRepository{db: db}
}

func (r *LockRepository) FindActiveLocks(ctx context.Context, uid int64, now time.Time) ([]store.MemberLock, error) {
	query := `
		SELECT id, member_uid, lock_start, lock_end, reason_code, reason_text, released_at, created_at
		FROM member_lock
		WHERE member_uid = $1
			AND lock_start <= $2
			AND (lock_end IS NULL OR lock_end > $2)
			AND (released_at IS NULL OR released_at > $2)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, uid, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []store.MemberLock
	for rows.Next() {
		var (
			l        store.MemberLock
			end      sql.NullTime
			released sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.MemberUID, &l.LockStart, &end, &l.ReasonCode, &l.ReasonText, &released, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		if end.Valid {
			t := end.Time
			l.LockEnd = &t
		}
		if released.Valid {
			t := released.Time
			l.ReleasedAt = &t
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
