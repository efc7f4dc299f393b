package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/rentalAuth/forceexpire"
	"github.com/MrEthical07/rentalAuth/store"
)

// Registry is the subset of forceexpire.Store used by the flows.
type Registry interface {
	Get(ctx context.Context, key string) (time.Time, bool, error)
	Put(ctx context.Context, key string, ttl time.Duration) error
	PutMany(ctx context.Context, items []forceexpire.Item) (int, error)
}

// SplitCredential splits an Authorization header value into scheme and token
// on the first space. Both parts must be non-empty.
func SplitCredential(header string) (scheme, token string, ok bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !found || scheme == "" || token == "" {
		return "", "", false
	}
	return scheme, token, true
}

// RegistryKey builds the force-expire key for a presented credential. Any
// casing of the bearer scheme maps onto the canonical history token type so
// that "bearer x" and "Bearer x" share one registry entry.
func RegistryKey(scheme, token string) string {
	if strings.EqualFold(scheme, store.TokenTypeBearer) {
		scheme = store.TokenTypeBearer
	}
	return forceexpire.Key(scheme, token)
}
