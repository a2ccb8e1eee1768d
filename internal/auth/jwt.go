package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtClaims keeps the payload layout {_id, name, email} that existing
// clients decode.
type jwtClaims struct {
	UserID string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type jwtCodec struct {
	key []byte
}

func newJWTCodec(key []byte) *jwtCodec {
	return &jwtCodec{key: key}
}

func (c *jwtCodec) Encode(claims Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID: claims.ID,
		Name:   claims.Name,
		Email:  claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   claims.ID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			NotBefore: jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			ID:        claims.TokenID,
		},
	})
	return tok.SignedString(c.key)
}

func (c *jwtCodec) Decode(token string, now time.Time) (Claims, error) {
	var parsed jwtClaims
	_, err := jwt.ParseWithClaims(token, &parsed,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	out := Claims{
		Identity: Identity{ID: parsed.UserID, Name: parsed.Name, Email: parsed.Email},
		TokenID:  parsed.ID,
	}
	if out.ID == "" {
		out.ID = parsed.Subject
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		out.ExpiresAt = parsed.ExpiresAt.Time
	}
	return out, nil
}
