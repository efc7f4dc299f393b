package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/rentalAuth/store"
)

// MemberRepository reads member. Roles are stored comma-separated.
type MemberRepository struct {
	db DBTX
}

var _ store.MemberRepository = (*MemberRepository)(nil)

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) FindByIdentifier(ctx context.Context, identifier string) (*store.Member, error) {
	query := `
		SELECT uid, identifier, password_hash, roles, withdrawn_at IS NOT NULL
		FROM member
		WHERE identifier = $1
	`
	return r.findOne(ctx, query, identifier)
}

func (r *MemberRepository) FindByUID(ctx context.Context, uid int64) (*store.Member, error) {
	query := `
		SELECT uid, identifier, password_hash, roles, withdrawn_at IS NOT NULL
		FROM member
		WHERE uid = $1
	`
	return r.findOne(ctx, query, uid)
}

func (r *MemberRepository) findOne(ctx context.Context, query string, arg any) (*store.Member, error) {
	var (
		m     store.Member
		roles string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&m.UID, &m.Identifier, &m.PasswordHash, &roles, &m.Deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	m.Roles = splitRoles(roles)
	return &m, nil
}

func splitRoles(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
