package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	tokenIssuer   = "bookreview-server"
	tokenAudience = "bookreview-client"

	// DefaultTokenDuration is how long an issued token stays valid.
	DefaultTokenDuration = 2 * time.Hour
)

// Token formats.
const (
	FormatJWT    = "jwt"
	FormatPASETO = "paseto"
)

// ErrInvalidToken is returned for tampered, malformed or expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// Identity is who a verified token says the caller is.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Claims is everything a token carries.
type Claims struct {
	Identity
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies claims in one wire format.
type Codec interface {
	Encode(c Claims) (string, error)
	// Decode returns ErrInvalidToken (wrapped) unless the token is authentic
	// and valid at now.
	Decode(token string, now time.Time) (Claims, error)
}

// Clock returns the current time.
type Clock func() time.Time

// Token is an issued token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenOptions configures NewTokenService.
type TokenOptions struct {
	Secret   string
	Format   string        // FormatJWT (default) or FormatPASETO
	Duration time.Duration // DefaultTokenDuration when zero
	Clock    Clock         // time.Now when nil
}

// TokenService issues and verifies stateless access tokens.
type TokenService struct {
	codec    Codec
	duration time.Duration
	now      Clock
}

// NewTokenService builds a token service for the configured format.
func NewTokenService(opts TokenOptions) (*TokenService, error) {
	if len(opts.Secret) < minSecretLength {
		return nil, fmt.Errorf("token secret must be at least %d characters", minSecretLength)
	}

	var (
		codec Codec
		err   error
	)
	switch opts.Format {
	case "", FormatJWT:
		codec = newJWTCodec([]byte(opts.Secret))
	case FormatPASETO:
		codec, err = newPASETOCodec(opts.Secret)
	default:
		return nil, fmt.Errorf("unknown token format %q", opts.Format)
	}
	if err != nil {
		return nil, err
	}

	duration := opts.Duration
	if duration <= 0 {
		duration = DefaultTokenDuration
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &TokenService{codec: codec, duration: duration, now: now}, nil
}

// Issue signs a token for ident that expires after the configured duration.
func (s *TokenService) Issue(ident Identity) (Token, error) {
	now := s.now().UTC().Truncate(time.Second)
	claims := Claims{
		Identity:  ident,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.duration),
	}

	value, err := s.codec.Encode(claims)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return Token{Value: value, ExpiresAt: claims.ExpiresAt}, nil
}

// Verify checks the token's signature and expiry and returns its identity.
func (s *TokenService) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrInvalidToken
	}
	claims, err := s.codec.Decode(token, s.now())
	if err != nil {
		return Identity{}, err
	}
	if claims.ID == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Identity, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
