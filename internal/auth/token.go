package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when TokenConfig.TTL is not positive.
const DefaultTokenTTL = 30 * time.Minute

// ErrInvalidToken covers every reason a token is rejected: malformed input,
// bad signature, wrong algorithm, expiry, issuer or a missing username.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed payload of an access token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenConfig carries the signing material. PreviousSecrets are accepted for
// verification only, so a secret can be rotated without logging everyone out.
type TokenConfig struct {
	Secret          string
	PreviousSecrets []string
	TTL             time.Duration
	Issuer          string
}

// TokenIssuer issues and verifies HS256 access tokens.
type TokenIssuer struct {
	keys   [][]byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption customizes a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer validates cfg and returns an issuer signing with cfg.Secret.
func NewTokenIssuer(cfg TokenConfig, opts ...TokenOption) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	t := &TokenIssuer{
		keys:   [][]byte{[]byte(cfg.Secret)},
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, s := range cfg.PreviousSecrets {
		if s != "" {
			t.keys = append(t.keys, []byte(s))
		}
	}
	if t.ttl <= 0 {
		t.ttl = DefaultTokenTTL
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs a token for username with the current secret.
func (t *TokenIssuer) Issue(username string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.keys[0])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token and returns its claims. Keys are tried newest first;
// the next key is only attempted when the signature did not match.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var lastErr error
	for _, key := range t.keys {
		claims := &Claims{}
		_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return key, nil
		}, opts...)
		if err == nil {
			if claims.Username == "" {
				return nil, fmt.Errorf("%w: missing username claim", ErrInvalidToken)
			}
			return claims, nil
		}
		lastErr = err
		if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidToken, lastErr)
}
