// Package internal holds code private to rentalAuth.
//
// # Sub-packages
//
//   - config: daemon settings from YAML, .env, environment and Secrets Manager
//   - flows: pure-function orchestrators behind every Engine operation
//   - rate: Redis fixed-window failed-login throttle
package internal
