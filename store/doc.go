// Package store defines the persistence model shared by the token lifecycle
// flows and its repository implementations.
//
// Rows in login_token_history are append-only: after insert only LogoutAt is
// ever written. Member and member_lock rows are owned by other services and are
// read-only here.
//
// Implementations live in sub-packages: store/postgres for production and
// store/memstore for tests and local tooling.
package store
