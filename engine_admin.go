package rentalAuth

import (
	"context"
	"strings"
)

const listedTokenPrefix = 16

// ListForceExpired returns every live registry entry, ordered by key. Token
// values are cut to their first 16 characters.
//
//	Performance: one SCAN pass plus one pipelined GET/PTTL round trip.
func (e *Engine) ListForceExpired(ctx context.Context) ([]ForceExpiredEntry, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	entries, err := e.registry.Scan(ctx)
	if err != nil {
		e.metricInc(MetricRegistryUnavailable)
		return nil, storeUnavailable(err)
	}

	out := make([]ForceExpiredEntry, 0, len(entries))
	for _, ent := range entries {
		typ, token, ok := strings.Cut(ent.Key, "_")
		if !ok {
			continue
		}
		if len(token) > listedTokenPrefix {
			token = token[:listedTokenPrefix] + "..."
		}
		out = append(out, ForceExpiredEntry{
			TokenType: typ,
			Token:     token,
			ExpiredAt: ent.ExpiredAt,
			TTL:       ent.TTL,
		})
	}
	return out, nil
}
