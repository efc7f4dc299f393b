package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MrEthical07/rentalAuth/store"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var historyCols = []string{
	"id", "member_uid", "token_type", "access_token", "refresh_token",
	"access_expires_at", "refresh_expires_at", "login_at", "logout_at", "deleted",
}

func TestHistoryFindActiveByToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	now := time.Unix(1_700_000_000, 0).UTC()

	q := `(?s)SELECT .* FROM login_token_history\s+WHERE token_type = \$1 AND access_token = \$2 AND logout_at IS NULL AND NOT deleted`
	mock.ExpectQuery(q).
		WithArgs("Bearer", "acc").
		WillReturnRows(sqlmock.NewRows(historyCols).
			AddRow(7, 42, "Bearer", "acc", "ref", now.Add(30*time.Minute), now.Add(7*24*time.Hour), now, nil, false))

	got, err := repo.FindActiveByToken(context.Background(), "Bearer", "acc")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, int64(42), got.MemberUID)
	assert.Equal(t, "ref", got.RefreshToken)
	assert.Nil(t, got.LogoutAt)
	assert.True(t, got.Active())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryFindActiveByTokenNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)

	mock.ExpectQuery(`(?s)SELECT .* FROM login_token_history`).
		WithArgs("Bearer", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByToken(context.Background(), "Bearer", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHistoryFindAllActiveForMember(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	now := time.Unix(1_700_000_000, 0).UTC()

	mock.ExpectQuery(`(?s)SELECT .* FROM login_token_history\s+WHERE member_uid = \$1 AND logout_at IS NULL`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(historyCols).
			AddRow(1, 42, "Bearer", "a1", "r1", now, now, now, nil, false).
			AddRow(2, 42, "Bearer", "a2", "r2", now, now, now, nil, false))

	rows, err := repo.FindAllActiveForMember(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a2", rows[1].AccessToken)
}

func TestHistorySaveAssignsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	now := time.Unix(1_700_000_000, 0).UTC()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+login_token_history.*RETURNING id`).
		WithArgs(int64(42), "Bearer", "acc", "ref", now.Add(time.Hour), now.Add(24*time.Hour), now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(99))

	row := &store.TokenHistory{
		MemberUID:        42,
		TokenType:        "Bearer",
		AccessToken:      "acc",
		RefreshToken:     "ref",
		AccessExpiresAt:  now.Add(time.Hour),
		RefreshExpiresAt: now.Add(24 * time.Hour),
		LoginAt:          now,
	}
	require.NoError(t, repo.Save(context.Background(), row))
	assert.Equal(t, int64(99), row.ID)
}

func TestHistorySaveDBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+login_token_history`).
		WillReturnError(errors.New("db down"))

	err := repo.Save(context.Background(), &store.TokenHistory{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestHistoryMarkLoggedOut(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	at := time.Unix(1_700_000_500, 0).UTC()

	mock.ExpectExec(`(?s)UPDATE login_token_history\s+SET logout_at = \$2\s+WHERE id = \$1 AND logout_at IS NULL`).
		WithArgs(int64(7), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkLoggedOut(context.Background(), 7, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryMarkLoggedOutAlreadyStamped(t *testing.T) {
	db, mock := newMock(t)
	repo := NewHistoryRepository(db)
	at := time.Unix(1_700_000_500, 0).UTC()

	mock.ExpectExec(`(?s)UPDATE login_token_history`).
		WithArgs(int64(7), at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkLoggedOut(context.Background(), 7, at)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockFindActiveLocks(t *testing.T) {
	db, mock := newMock(t)
	repo := NewLockRepository(db)
	now := time.Unix(1_700_000_000, 0).UTC()
	end := now.Add(72 * time.Hour)

	mock.ExpectQuery(`(?s)SELECT .* FROM member_lock\s+WHERE member_uid = \$1.*ORDER BY created_at DESC`).
		WithArgs(int64(42), now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_uid", "lock_start", "lock_end", "reason_code", "reason_text", "released_at", "created_at"}).
			AddRow(3, 42, now.Add(-time.Hour), end, "NO_SHOW", "missed", nil, now.Add(-time.Hour)).
			AddRow(1, 42, now.Add(-48*time.Hour), nil, "FRAUD", "", nil, now.Add(-48*time.Hour)))

	locks, err := repo.FindActiveLocks(context.Background(), 42, now)
	require.NoError(t, err)
	require.Len(t, locks, 2)
	assert.Equal(t, "NO_SHOW", locks[0].ReasonCode)
	require.NotNil(t, locks[0].LockEnd)
	assert.True(t, locks[0].LockEnd.Equal(end))
	assert.Nil(t, locks[1].LockEnd)
	assert.True(t, locks[1].ActiveAt(now))
}

func TestMemberFind(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMemberRepository(db)
	cols := []string{"uid", "identifier", "password_hash", "roles", "withdrawn"}

	mock.ExpectQuery(`(?s)SELECT .* FROM member\s+WHERE identifier = \$1`).
		WithArgs("host@example.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(42, "host@example.com", "$argon2id$...", "ROLE_USER, ROLE_HOST", false))
	mock.ExpectQuery(`(?s)SELECT .* FROM member\s+WHERE uid = \$1`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(8, "gone@example.com", "x", "", true))
	mock.ExpectQuery(`(?s)SELECT .* FROM member\s+WHERE uid = \$1`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	m, err := repo.FindByIdentifier(context.Background(), "host@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER", "ROLE_HOST"}, m.Roles)
	assert.False(t, m.Deleted)

	gone, err := repo.FindByUID(context.Background(), 8)
	require.NoError(t, err)
	assert.True(t, gone.Deleted)
	assert.Empty(t, gone.Roles)

	_, err = repo.FindByUID(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMigrateUsesEmbeddedDir(t *testing.T) {
	db, _ := newMock(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, "migrations", gotDir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.ErrorContains(t, Migrate(context.Background(), db), "boom")
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_init.sql", entries[0].Name())
}
