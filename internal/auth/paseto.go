package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

const pasetoKeyPurpose = "bookreview-server paseto v4.local"

type pasetoCodec struct {
	key paseto.V4SymmetricKey
}

func newPASETOCodec(secret string) (*pasetoCodec, error) {
	raw, err := DeriveKey(secret, pasetoKeyPurpose)
	if err != nil {
		return nil, err
	}
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &pasetoCodec{key: key}, nil
}

func (c *pasetoCodec) Encode(claims Claims) (string, error) {
	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(claims.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(claims.IssuedAt)
	token.SetNotBefore(claims.IssuedAt)
	token.SetExpiration(claims.ExpiresAt)
	token.SetJti(claims.TokenID)

	if err := token.Set("name", claims.Name); err != nil {
		return "", err
	}
	if err := token.Set("email", claims.Email); err != nil {
		return "", err
	}

	return token.V4Encrypt(c.key, nil), nil
}

func (c *pasetoCodec) Decode(tokenString string, now time.Time) (Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(now))

	token, err := parser.ParseV4Local(c.key, tokenString, nil)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var out Claims
	if out.ID, err = token.GetSubject(); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	// Optional claims; absent values stay empty.
	out.Name, _ = token.GetString("name")
	out.Email, _ = token.GetString("email")
	out.TokenID, _ = token.GetJti()
	out.IssuedAt, _ = token.GetIssuedAt()
	out.ExpiresAt, _ = token.GetExpiration()
	return out, nil
}
