// Package rentalAuth is the token lifecycle core of the rental platform: it
// issues HS256 access/refresh pairs with encrypted claims, authenticates
// bearer credentials, and force-expires tokens through a Redis denylist.
//
// An [Engine] is assembled once with a [Builder] and is safe for concurrent use.
// [Engine.Authenticate] is the per-request gate; it returns an explicit
// [Principal] and never writes server-side state. Login, Reissue, Logout and
// ForceExpireAll make up the lifecycle service.
//
// # Architecture boundaries
//
// Flow orchestration lives in internal/flows. Token encoding is in jwt, the
// denylist in forceexpire, role sets in permission and persistence contracts
// in store. This package wires them together and maps flow failures onto the
// exported sentinel errors.
//
// # Revocation outages
//
// When Redis cannot be reached during authentication the lookup is logged and
// the token is treated as not revoked. Set ForceExpireConfig.FailClosed to
// reject instead.
package rentalAuth
