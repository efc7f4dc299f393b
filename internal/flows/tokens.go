package flows

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/rentalAuth/jwt"
	"github.com/MrEthical07/rentalAuth/store"
)

// TokenPair is a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// PairIssuer signs token pairs and records them in the history table.
type PairIssuer struct {
	Codec      *jwt.Codec
	History    store.HistoryRepository
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func (p PairIssuer) issue(m *store.Member) (TokenPair, *store.TokenHistory, error) {
	subject := m.Identifier
	if subject == "" {
		subject = strconv.FormatInt(m.UID, 10)
	}

	access, accessExp, err := p.Codec.Issue(jwt.IssueInput{
		Subject: subject,
		UID:     m.UID,
		Usage:   jwt.UsageAccess,
		Roles:   m.Roles,
		TTL:     p.AccessTTL,
	})
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := p.Codec.Issue(jwt.IssueInput{
		Subject: subject,
		UID:     m.UID,
		Usage:   jwt.UsageRefresh,
		Roles:   m.Roles,
		TTL:     p.RefreshTTL,
	})
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("issue refresh token: %w", err)
	}

	pair := TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}
	row := &store.TokenHistory{
		MemberUID:        m.UID,
		TokenType:        store.TokenTypeBearer,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		LoginAt:          p.now(),
	}
	return pair, row, nil
}

// IssueAndRecord issues a pair for m and persists its history row. No tokens
// are returned when the row cannot be written.
func (p PairIssuer) IssueAndRecord(ctx context.Context, m *store.Member) (TokenPair, error) {
	pair, row, err := p.issue(m)
	if err != nil {
		return TokenPair{}, err
	}
	if err := p.History.Save(ctx, row); err != nil {
		return TokenPair{}, fmt.Errorf("save token history: %w", err)
	}
	return pair, nil
}

func (p PairIssuer) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
