package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/NassaQ/server/internal/ids"
)

// Token kinds carried in the "type" claim. The refresh endpoint rejects
// anything that is not a refresh token even when otherwise valid.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenTypeBearer is the token_type marker returned alongside a pair.
const TokenTypeBearer = "bearer"

// Claims is the signed payload of a session token. RoleID is present on
// access tokens only; refresh tokens omit it because the role may change
// between refreshes.
type Claims struct {
	RoleID    int64  `json:"rid,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// SubjectID returns the numeric user id asserted by the token.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Codec signs and verifies stateless session tokens with a symmetric
// secret fixed at startup. It holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec)

// WithCodecClock overrides the time source, for tests.
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec constructs a Codec. Only the HMAC family of algorithms is
// accepted; the signing key must come from configuration, never source.
func NewCodec(secret, algorithm string, accessTTL, refreshTTL time.Duration, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: signing secret is required", ErrInvalidInput)
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok || method == nil {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", ErrInvalidInput, algorithm)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token TTLs must be positive", ErrInvalidInput)
	}
	c := &Codec{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssueAccess signs a short-lived access token embedding the subject's
// current role.
func (c *Codec) IssueAccess(subjectID, roleID int64) (string, time.Time, error) {
	return c.issue(subjectID, roleID, TokenTypeAccess, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token. No role claim: the
// role is re-read from storage when the token is redeemed.
func (c *Codec) IssueRefresh(subjectID int64) (string, time.Time, error) {
	return c.issue(subjectID, 0, TokenTypeRefresh, c.refreshTTL)
}

func (c *Codec) issue(subjectID, roleID int64, tokenType string, ttl time.Duration) (string, time.Time, error) {
	if subjectID <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	now := c.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		RoleID:    roleID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        ids.New(),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Decode verifies signature, algorithm, structure and expiry. Every
// failure collapses to ErrInvalidToken so callers cannot distinguish
// why a token was rejected.
func (c *Codec) Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != c.method.Alg() {
				return nil, ErrInvalidToken
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
