// Package password hashes and verifies member passwords with Argon2id.
//
// Hashes use the PHC string format
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// so parameters can be raised later without invalidating stored hashes; see
// [Hasher.NeedsRehash].
package password
