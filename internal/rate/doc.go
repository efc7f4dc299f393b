// Package rate throttles failed logins with fixed-window Redis counters.
//
// Counters are keyed by lower-cased identifier, so unknown identifiers are
// counted exactly like real ones.
package rate
