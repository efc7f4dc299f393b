// Package memstore is an in-memory implementation of the store repositories.
//
// It backs unit tests, the load tool and local development runs. All methods
// are safe for concurrent use.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrEthical07/rentalAuth/store"
)

// Store implements store.HistoryRepository, store.LockRepository and
// store.MemberRepository over maps guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	history  []store.TokenHistory
	locks    []store.MemberLock
	members  map[int64]store.Member
	failWith error
}

var (
	_ store.HistoryRepository = (*Store)(nil)
	_ store.LockRepository    = (*Store)(nil)
	_ store.MemberRepository  = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{members: make(map[int64]store.Member)}
}

// FailWith makes every later repository call return err until it is reset
// with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// PutMember adds or replaces m.
func (s *Store) PutMember(m store.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Roles = append([]string(nil), m.Roles...)
	s.members[m.UID] = m
}

// AddLock appends l, assigning an id when unset.
func (s *Store) AddLock(l store.MemberLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if l.ID == 0 {
		l.ID = s.nextID
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.LockStart
	}
	s.locks = append(s.locks, l)
}

// History returns a copy of every history row of uid, in insert order.
func (s *Store) History(uid int64) []store.TokenHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.TokenHistory
	for _, h := range s.history {
		if h.MemberUID == uid {
			out = append(out, h)
		}
	}
	return out
}

func (s *Store) FindActiveByToken(ctx context.Context, tokenType, accessToken string) (*store.TokenHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		if h.Active() && h.TokenType == tokenType && h.AccessToken == accessToken {
			return &h, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindAllActiveForMember(ctx context.Context, uid int64) ([]store.TokenHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []store.TokenHistory
	for _, h := range s.history {
		if h.MemberUID == uid && h.Active() {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, row *store.TokenHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.nextID++
	row.ID = s.nextID
	s.history = append(s.history, *row)
	return nil
}

func (s *Store) MarkLoggedOut(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	for i := range s.history {
		if s.history[i].ID == id && s.history[i].LogoutAt == nil {
			t := at
			s.history[i].LogoutAt = &t
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) FindActiveLocks(ctx context.Context, uid int64, now time.Time) ([]store.MemberLock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	var out []store.MemberLock
	for _, l := range s.locks {
		if l.MemberUID == uid && l.ActiveAt(now) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*store.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	for _, m := range s.members {
		if m.Identifier == identifier {
			m.Roles = append([]string(nil), m.Roles...)
			return &m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindByUID(ctx context.Context, uid int64) (*store.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	m, ok := s.members[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.Roles = append([]string(nil), m.Roles...)
	return &m, nil
}
