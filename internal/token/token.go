// Package token implements the signed capability token handed out in
// expiring image links. A token embeds the resource locator, the TTL and the
// issuance time; the HMAC signature covers all three, so a holder can neither
// repoint the token nor stretch its access window.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when a token cannot be parsed or its
	// signature does not verify.
	ErrMalformed = errors.New("token is malformed or its signature is invalid")

	// ErrExpired is returned when a token's TTL has elapsed.
	ErrExpired = errors.New("token has expired")
)

// Claims is the signed payload of a capability token.
type Claims struct {
	Resource string `json:"url"`
	TTL      int    `json:"ttl"`
	jwt.RegisteredClaims
}

// Codec encodes and verifies capability tokens with a process-wide secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a Codec signing with secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// NewCodecWithClock creates a Codec with an injected clock.
func NewCodecWithClock(secret string, now func() time.Time) *Codec {
	return &Codec{secret: []byte(secret), now: now}
}

// Encode produces an opaque token granting access to resource for ttlSeconds
// from now.
func (c *Codec) Encode(resource string, ttlSeconds int) (string, error) {
	now := c.now()
	claims := Claims{
		Resource: resource,
		TTL:      ttlSeconds,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlSeconds) * time.Second)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// DecodeAndVerify parses tokenStr, checks its signature and age, and returns
// the embedded resource locator. The TTL is read from the verified payload,
// never from the caller.
func (c *Codec) DecodeAndVerify(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Resource == "" {
		return "", ErrMalformed
	}
	return claims.Resource, nil
}
