package jwt

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Usage tags a token as an access or a refresh token.
type Usage string

const (
	// UsageAccess marks short-lived tokens accepted by the authentication filter.
	UsageAccess Usage = "access"
	// UsageRefresh marks long-lived tokens accepted only by reissue.
	UsageRefresh Usage = "refresh"
)

// FormatJWT is the token-format identifier written into every header.
const FormatJWT = "JWT"

const minSecretLength = 32

var (
	// ErrMalformed is returned when a token string cannot be split or decoded.
	ErrMalformed = errors.New("malformed token")
	// ErrClaimsUnreadable is returned when the encrypted claims segment cannot be decrypted.
	ErrClaimsUnreadable = errors.New("token claims unreadable")
)

// Config carries the signing and claims-encryption material of a [Codec].
//
// Config values are read once by [NewCodec] and treated as immutable afterwards.
type Config struct {
	Secret    []byte
	Issuer    string
	ClaimsKey []byte
	ClaimsIV  []byte
	// Now overrides the clock used for iat/exp and remaining-lifetime math.
	Now func() time.Time
}

// Codec encodes and decodes HS256-signed tokens whose role list and member
// uid travel inside an AES-CBC encrypted claims segment.
//
// Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	config Config
	block  cipher.Block
}

// IssueInput describes one token to sign.
type IssueInput struct {
	Subject string
	UID     int64
	Usage   Usage
	Roles   []string
	Attrs   map[string]string
	TTL     time.Duration
}

// Decoded is the semantic view of a token after decryption.
type Decoded struct {
	ID        string
	Subject   string
	UID       int64
	Usage     Usage
	Roles     []string
	Attrs     map[string]string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type bodyClaims struct {
	Usage  string `json:"use"`
	Sealed string `json:"cdt"`
	jwt.RegisteredClaims
}

type sealedClaims struct {
	UID   int64             `json:"uid"`
	Usage string            `json:"use"`
	Roles []string          `json:"roles"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

// NewCodec validates cfg and prepares the claims cipher.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, errors.New("jwt issuer required")
	}
	block, err := aes.NewCipher(cfg.ClaimsKey)
	if err != nil {
		return nil, fmt.Errorf("invalid claims key: %w", err)
	}
	if len(cfg.ClaimsIV) != block.BlockSize() {
		return nil, fmt.Errorf("claims iv must be %d bytes", block.BlockSize())
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Secret = append([]byte(nil), cfg.Secret...)
	cfg.ClaimsIV = append([]byte(nil), cfg.ClaimsIV...)

	return &Codec{config: cfg, block: block}, nil
}

// ConfiguredIssuer returns the issuer this codec writes into new tokens.
func (c *Codec) ConfiguredIssuer() string {
	return c.config.Issuer
}

// Issue signs a new token and returns it together with its expiry.
func (c *Codec) Issue(in IssueInput) (string, time.Time, error) {
	if in.TTL <= 0 {
		return "", time.Time{}, errors.New("token ttl must be positive")
	}
	if in.Usage != UsageAccess && in.Usage != UsageRefresh {
		return "", time.Time{}, fmt.Errorf("unknown token usage %q", in.Usage)
	}

	sealed, err := c.seal(sealedClaims{
		UID:   in.UID,
		Usage: string(in.Usage),
		Roles: in.Roles,
		Attrs: in.Attrs,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	now := c.config.Now()
	expiresAt := now.Add(in.TTL)
	claims := bodyClaims{
		Usage:  string(in.Usage),
		Sealed: sealed,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   in.Subject,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["typ"] = FormatJWT

	signed, err := token.SignedString(c.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt.Truncate(time.Second), nil
}

// TokenType returns the header format identifier without checking the signature.
func (c *Codec) TokenType(token string) (string, error) {
	parsed, _, err := c.parseUnverified(token)
	if err != nil {
		return "", err
	}
	typ, ok := parsed.Header["typ"].(string)
	if !ok || typ == "" {
		return "", ErrMalformed
	}
	return typ, nil
}

// TokenUsage decrypts the claims segment and returns its usage tag.
func (c *Codec) TokenUsage(token string) (Usage, error) {
	sealed, err := c.openToken(token)
	if err != nil {
		return "", err
	}
	return Usage(sealed.Usage), nil
}

// RemainSeconds returns exp minus now in whole seconds; negative once expired.
func (c *Codec) RemainSeconds(token string) (int64, error) {
	_, claims, err := c.parseUnverified(token)
	if err != nil {
		return 0, err
	}
	if claims.ExpiresAt == nil {
		return 0, ErrMalformed
	}
	return claims.ExpiresAt.Unix() - c.config.Now().Unix(), nil
}

// Remaining is RemainSeconds as a duration.
func (c *Codec) Remaining(token string) (time.Duration, error) {
	secs, err := c.RemainSeconds(token)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// Issuer returns the iss claim without checking the signature.
func (c *Codec) Issuer(token string) (string, error) {
	_, claims, err := c.parseUnverified(token)
	if err != nil {
		return "", err
	}
	return claims.Issuer, nil
}

// Subject returns the sub claim without checking the signature.
func (c *Codec) Subject(token string) (string, error) {
	_, claims, err := c.parseUnverified(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ValidateSignature recomputes the HS256 signature with secret. Any structural
// problem yields false. Expiry is not considered.
func (c *Codec) ValidateSignature(token string, secret []byte) (valid bool) {
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()
	if len(secret) == 0 {
		return false
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)
	parsed, err := parser.ParseWithClaims(token, &bodyClaims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	return err == nil && parsed != nil && parsed.Valid
}

// RoleList returns the decrypted role names.
func (c *Codec) RoleList(token string) ([]string, error) {
	sealed, err := c.openToken(token)
	if err != nil {
		return nil, err
	}
	return sealed.Roles, nil
}

// MemberUID returns the decrypted member uid.
func (c *Codec) MemberUID(token string) (int64, error) {
	sealed, err := c.openToken(token)
	if err != nil {
		return 0, err
	}
	return sealed.UID, nil
}

// Decode returns every semantic field. It does not verify the signature.
func (c *Codec) Decode(token string) (*Decoded, error) {
	_, claims, err := c.parseUnverified(token)
	if err != nil {
		return nil, err
	}
	sealed, err := c.open(claims.Sealed)
	if err != nil {
		return nil, err
	}

	out := &Decoded{
		ID:      claims.ID,
		Subject: claims.Subject,
		UID:     sealed.UID,
		Usage:   Usage(sealed.Usage),
		Roles:   sealed.Roles,
		Attrs:   sealed.Attrs,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (c *Codec) parseUnverified(token string) (*jwt.Token, *bodyClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, nil, ErrMalformed
	}
	claims := &bodyClaims{}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return parsed, claims, nil
}

func (c *Codec) openToken(token string) (*sealedClaims, error) {
	_, claims, err := c.parseUnverified(token)
	if err != nil {
		return nil, err
	}
	return c.open(claims.Sealed)
}
