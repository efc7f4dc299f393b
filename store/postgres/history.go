package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/rentalAuth/store"
)

// HistoryRepository reads and writes login_token_history.
type HistoryRepository struct {
	db DBTX
}

var _ store.HistoryRepository = (*HistoryRepository)(nil)

func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, member_uid, token_type, access_token, refresh_token,
		access_expires_at, refresh_expires_at, login_at, logout_at, deleted`

func scanHistory(scan func(dest ...any) error) (store.TokenHistory, error) {
	var (
		h      store.TokenHistory
		logout sql.NullTime
	)
	err := scan(&h.ID, &h.MemberUID, &h.TokenType, &h.AccessToken, &h.RefreshToken,
		&h.AccessExpiresAt, &h.RefreshExpiresAt, &h.LoginAt, &logout, &h.Deleted)
	if err != nil {
		return store.TokenHistory{}, err
	}
	if logout.Valid {
		t := logout.Time
		h.LogoutAt = &t
	}
	return h, nil
}

func (r *HistoryRepository) FindActiveByToken(ctx context.Context, tokenType, accessToken string) (*store.TokenHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM login_token_history
		WHERE token_type = $1 AND access_token = $2 AND logout_at IS NULL AND NOT deleted
		ORDER BY id DESC
		LIMIT 1
	`
	h, err := scanHistory(r.db.QueryRowContext(ctx, query, tokenType, accessToken).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &h, nil
}

func (r *HistoryRepository) FindAllActiveForMember(ctx context.Context, uid int64) ([]store.TokenHistory, error) {
	query := `
		SELECT ` + historyColumns + `
		FROM login_token_history
		WHERE member_uid = $1 AND logout_at IS NULL AND NOT deleted
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []store.TokenHistory
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *HistoryRepository) Save(ctx context.Context, row *store.TokenHistory) error {
	query := `
		INSERT INTO login_token_history
			(member_uid, token_type, access_token, refresh_token, access_expires_at, refresh_expires_at, login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		row.MemberUID, row.TokenType, row.AccessToken, row.RefreshToken,
		row.AccessExpiresAt, row.RefreshExpiresAt, row.LoginAt,
	).Scan(&row.ID)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *HistoryRepository) MarkLoggedOut(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE login_token_history
		SET logout_at = $2
		WHERE id = $1 AND logout_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
