// Package permission models member roles as a closed enum and evaluates
// route-level requirements as predicates over a decoded authority set.
//
// Tokens carry role names ("ROLE_ADMIN"); [ParseAuthorities] maps them onto a
// [Mask64] once per request and unknown names are dropped. Handlers never
// compare role strings directly: they are guarded by a [Predicate] such as
// HasRole(RoleAdmin) or AnyOf(RoleHost, RoleAdmin).
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import the root package, jwt, or forceexpire.
package permission
