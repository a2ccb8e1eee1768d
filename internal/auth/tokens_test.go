package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestTokenService(t *testing.T, format string, clock *fakeClock) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenOptions{
		Secret:   testSecret,
		Format:   format,
		Duration: 2 * time.Hour,
		Clock:    clock.Now,
	})
	require.NoError(t, err)
	return svc
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	ident := Identity{ID: "usr-1", Name: "A", Email: "a@x.com"}

	for _, format := range []string{FormatJWT, FormatPASETO} {
		t.Run(format, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
			svc := newTestTokenService(t, format, clock)

			tok, err := svc.Issue(ident)
			require.NoError(t, err)
			assert.Equal(t, clock.now.Add(2*time.Hour), tok.ExpiresAt)

			got, err := svc.Verify(tok.Value)
			require.NoError(t, err)
			assert.Equal(t, ident, got)

			clock.now = clock.now.Add(2*time.Hour - time.Second)
			_, err = svc.Verify(tok.Value)
			require.NoError(t, err, "token should verify until expiry")

			clock.now = clock.now.Add(2 * time.Second)
			_, err = svc.Verify(tok.Value)
			assert.ErrorIs(t, err, ErrInvalidToken, "token should fail after expiry")
		})
	}
}

func TestTokenService_RejectsTampered(t *testing.T) {
	for _, format := range []string{FormatJWT, FormatPASETO} {
		t.Run(format, func(t *testing.T) {
			clock := &fakeClock{now: time.Now()}
			svc := newTestTokenService(t, format, clock)

			tok, err := svc.Issue(Identity{ID: "usr-1"})
			require.NoError(t, err)

			mid := len(tok.Value) / 2
			flipped := byte('A')
			if tok.Value[mid] == 'A' {
				flipped = 'B'
			}
			tampered := tok.Value[:mid] + string(flipped) + tok.Value[mid+1:]

			_, err = svc.Verify(tampered)
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = svc.Verify("not-a-token")
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, err = svc.Verify("")
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_DifferentSecretFails(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	a := newTestTokenService(t, FormatJWT, clock)

	b, err := NewTokenService(TokenOptions{Secret: "another-secret-0123456789", Clock: clock.Now})
	require.NoError(t, err)

	tok, err := a.Issue(Identity{ID: "usr-1"})
	require.NoError(t, err)

	_, err = b.Verify(tok.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenService_Validation(t *testing.T) {
	_, err := NewTokenService(TokenOptions{Secret: "short"})
	assert.Error(t, err)

	_, err = NewTokenService(TokenOptions{Secret: testSecret, Format: "saml"})
	assert.Error(t, err)

	svc, err := NewTokenService(TokenOptions{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenDuration, svc.Duration())
}
