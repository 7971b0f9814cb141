package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is the single outcome for every verification failure:
// malformed structure, bad signature, expiry, or decode errors. Callers
// across the trust boundary never learn which one it was.
var ErrInvalidToken = errors.New("invalid token")

// TokenCodec mints and validates self-contained HS256 bearer tokens. It
// holds no mutable state; a token is valid purely as a function of the
// secret and the current time.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *TokenCodec) Configured() bool {
	return len(c.secret) > 0
}

// Issue signs a claim set for subject expiring after the codec's TTL and
// returns the encoded token with its lifetime in seconds.
func (c *TokenCodec) Issue(subject string) (string, int64, error) {
	now := c.now().UTC()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(c.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(c.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}

	return encoded, int64(c.ttl.Seconds()), nil
}

func (c *TokenCodec) Verify(tokenStr string) (Claims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return Claims{}, ErrInvalidToken
	}
	issuedAt, err := claims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return Claims{}, ErrInvalidToken
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject:   subject,
		IssuedAt:  issuedAt.Time.UTC(),
		ExpiresAt: expiresAt.Time.UTC(),
	}, nil
}
