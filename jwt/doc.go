// Package jwt issues and inspects the three-segment HS256 tokens used for
// member access and refresh.
//
// Role names, the member uid and the usage tag are sealed into a single
// AES-CBC encrypted claim ("cdt") so they stay opaque to anyone holding the
// token. Accessors that only need the plain body (type, issuer, expiry) do not
// verify the signature; callers run [Codec.ValidateSignature] as a separate
// step and treat every accessor error as an invalid token.
package jwt
