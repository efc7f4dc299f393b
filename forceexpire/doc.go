// Package forceexpire keeps the Redis denylist of tokens invalidated before
// their natural expiry.
//
// Every entry lives under "{tokenType}_{token}" (plus an optional namespace
// prefix) with a TTL equal to the token's remaining lifetime, so the set never
// outgrows the population of still-valid tokens and nothing is ever deleted
// explicitly.
//
// # What this package must NOT do
//
//   - Interpret or verify tokens.
//   - Decide fail-open versus fail-closed; it reports [ErrUnavailable] and the
//     caller chooses.
package forceexpire
