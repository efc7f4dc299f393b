// Package middleware exposes HTTP middleware adapters over rentalAuth.Engine.
//
// # Filters
//
//   - [Authenticate] resolves the Authorization header of guarded paths into a
//     rentalAuth.Principal stored in the request context. It never rejects.
//   - [RequireAuthenticated] answers 401 when no principal is present.
//   - [RequireRole] answers 401 without a principal and 403 when the principal's
//     authorities fail a permission.Predicate.
//
// Both rejections are written with an empty body.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Token parsing,
// the revocation lookup and every validation rule live in Engine.Authenticate.
package middleware
