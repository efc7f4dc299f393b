package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/rentalAuth/forceexpire"
	"github.com/MrEthical07/rentalAuth/jwt"
	"github.com/MrEthical07/rentalAuth/store"
)

// ReissueFailureKind classifies reissue failures. The first five values line
// up with the api-result-code returned to clients.
type ReissueFailureKind int

const (
	ReissueFailureNone ReissueFailureKind = iota
	ReissueFailureInvalidRefresh
	ReissueFailureExpiredRefresh
	ReissueFailurePairing
	ReissueFailureMemberGone
	ReissueFailureLoggedOut
	ReissueFailureStore
	ReissueFailureIssue
)

// ReissueResult carries the new pair or failure metadata.
type ReissueResult struct {
	Failure     ReissueFailureKind
	Err         error
	Revoked     bool // a presented token was found in the registry
	MemberUID   int64
	Expired     int
	Pair        TokenPair
	RegistryErr error
}

// ReissueDeps captures reissue dependencies.
type ReissueDeps struct {
	Codec      *jwt.Codec
	Registry   Registry
	History    store.HistoryRepository
	Members    store.MemberRepository
	Issuer     PairIssuer
	Secret     []byte
	IssuerName string
	FailClosed bool
	Now        func() time.Time
	Warn       func(string, ...any)
}

// RunReissue exchanges a refresh token plus the access token it was issued
// with for a new pair. The old access token may already be expired; it is
// checked against the registry, used to locate its history row and
// force-expired on success, as is the consumed refresh token. Stamping the
// history row is the claim: of two concurrent reissues only one stamps it.
func RunReissue(ctx context.Context, accessHeader, refreshToken string, deps ReissueDeps) ReissueResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	refreshToken = strings.TrimSpace(refreshToken)

	refreshClaims, res := checkRefresh(ctx, refreshToken, deps)
	if res.Failure != ReissueFailureNone {
		return res
	}

	scheme, access, ok := SplitCredential(accessHeader)
	if !ok || !strings.EqualFold(scheme, store.TokenTypeBearer) {
		return ReissueResult{Failure: ReissueFailurePairing}
	}
	accessSubject, err := deps.Codec.Subject(access)
	if err != nil || !deps.Codec.ValidateSignature(access, deps.Secret) {
		return ReissueResult{Failure: ReissueFailurePairing, Err: err}
	}
	if usage, err := deps.Codec.TokenUsage(access); err != nil || usage != jwt.UsageAccess {
		return ReissueResult{Failure: ReissueFailurePairing, Err: err}
	}
	if accessSubject != refreshClaims.Subject {
		return ReissueResult{Failure: ReissueFailurePairing}
	}
	if res := checkAccessRevoked(ctx, access, deps); res.Failure != ReissueFailureNone {
		return res
	}

	member, err := deps.Members.FindByUID(ctx, refreshClaims.UID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ReissueResult{Failure: ReissueFailureMemberGone, MemberUID: refreshClaims.UID}
	case err != nil:
		return ReissueResult{Failure: ReissueFailureStore, Err: err, MemberUID: refreshClaims.UID}
	case member.Deleted:
		return ReissueResult{Failure: ReissueFailureMemberGone, MemberUID: member.UID}
	}

	row, err := deps.History.FindActiveByToken(ctx, store.TokenTypeBearer, access)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ReissueResult{Failure: ReissueFailureLoggedOut, MemberUID: member.UID}
	case err != nil:
		return ReissueResult{Failure: ReissueFailureStore, Err: err, MemberUID: member.UID}
	case row.MemberUID != member.UID || row.RefreshToken != refreshToken:
		return ReissueResult{Failure: ReissueFailurePairing, MemberUID: member.UID}
	}

	items := make([]forceexpire.Item, 0, 2)
	if ttl, err := deps.Codec.Remaining(access); err == nil {
		items = append(items, forceexpire.Item{Key: RegistryKey(store.TokenTypeBearer, access), TTL: ttl})
	}
	if ttl, err := deps.Codec.Remaining(refreshToken); err == nil {
		items = append(items, forceexpire.Item{Key: RegistryKey(store.TokenTypeBearer, refreshToken), TTL: ttl})
	}
	expired, err := deps.Registry.PutMany(ctx, items)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureStore, Err: err, MemberUID: member.UID, RegistryErr: err}
	}
	err = deps.History.MarkLoggedOut(ctx, row.ID, deps.Now())
	if errors.Is(err, store.ErrNotFound) {
		// a concurrent reissue or sweep claimed the row first
		return ReissueResult{Failure: ReissueFailureLoggedOut, MemberUID: member.UID, Expired: expired}
	}
	if err != nil {
		return ReissueResult{Failure: ReissueFailureStore, Err: fmt.Errorf("mark history logged out: %w", err), MemberUID: member.UID}
	}

	pair, err := deps.Issuer.IssueAndRecord(ctx, member)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureIssue, Err: err, MemberUID: member.UID}
	}
	return ReissueResult{MemberUID: member.UID, Pair: pair, Expired: expired}
}

// checkAccessRevoked rejects an access token that is already in the registry.
// Logout and expire-all write the registry before stamping history, so this
// catches sessions whose history stamp was lost.
func checkAccessRevoked(ctx context.Context, access string, deps ReissueDeps) ReissueResult {
	_, revoked, err := deps.Registry.Get(ctx, RegistryKey(store.TokenTypeBearer, access))
	if err != nil {
		if deps.Warn != nil {
			deps.Warn("force-expire lookup failed", "error", err, "fail_closed", deps.FailClosed)
		}
		if deps.FailClosed {
			return ReissueResult{Failure: ReissueFailureStore, Err: err, RegistryErr: err}
		}
	}
	if revoked {
		return ReissueResult{Failure: ReissueFailureLoggedOut, Revoked: true}
	}
	return ReissueResult{}
}

// checkRefresh validates the refresh token in the order structure, usage,
// signature, issuer, revocation, expiry.
func checkRefresh(ctx context.Context, token string, deps ReissueDeps) (*jwt.Decoded, ReissueResult) {
	invalid := func(err error) (*jwt.Decoded, ReissueResult) {
		return nil, ReissueResult{Failure: ReissueFailureInvalidRefresh, Err: err}
	}

	if token == "" {
		return invalid(nil)
	}
	typ, err := deps.Codec.TokenType(token)
	if err != nil || !strings.EqualFold(typ, jwt.FormatJWT) {
		return invalid(err)
	}
	usage, err := deps.Codec.TokenUsage(token)
	if err != nil || usage != jwt.UsageRefresh {
		return invalid(err)
	}
	if !deps.Codec.ValidateSignature(token, deps.Secret) {
		return invalid(nil)
	}
	iss, err := deps.Codec.Issuer(token)
	if err != nil || iss != deps.IssuerName {
		return invalid(err)
	}

	_, revoked, err := deps.Registry.Get(ctx, RegistryKey(store.TokenTypeBearer, token))
	if err != nil {
		if deps.Warn != nil {
			deps.Warn("force-expire lookup failed", "error", err, "fail_closed", deps.FailClosed)
		}
		if deps.FailClosed {
			return nil, ReissueResult{Failure: ReissueFailureStore, Err: err, RegistryErr: err}
		}
	}
	if revoked {
		return nil, ReissueResult{Failure: ReissueFailureInvalidRefresh, Revoked: true}
	}

	remain, err := deps.Codec.RemainSeconds(token)
	if err != nil {
		return invalid(err)
	}
	if remain <= 0 {
		return nil, ReissueResult{Failure: ReissueFailureExpiredRefresh}
	}

	claims, err := deps.Codec.Decode(token)
	if err != nil {
		return invalid(err)
	}
	return claims, ReissueResult{}
}
