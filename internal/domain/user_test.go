package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/errors"
)

func TestNewUser_HashesPassword(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	u, err := NewUser("  A  ", "a@x.com", "pw", now)
	require.NoError(t, err)

	assert.Equal(t, "A", u.Name)
	assert.NotEqual(t, "pw", u.PasswordHash)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, now, u.CreatedAt)
	assert.Equal(t, now, u.UpdatedAt)

	ok, err := u.CheckPassword("pw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = u.CheckPassword("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewUser_Incomplete(t *testing.T) {
	tests := []struct {
		name, userName, email, password string
	}{
		{"missing name", "", "a@x.com", "pw"},
		{"blank name", "   ", "a@x.com", "pw"},
		{"missing email", "A", "", "pw"},
		{"missing password", "A", "a@x.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.userName, tt.email, tt.password, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestUser_Identity(t *testing.T) {
	u := &User{Name: "A", Email: "a@x.com"}
	u.ID = "usr-1"

	ident := u.Identity()
	assert.Equal(t, "usr-1", ident.ID)
	assert.Equal(t, "A", ident.Name)
	assert.Equal(t, "a@x.com", ident.Email)
}

func TestEmailKey(t *testing.T) {
	assert.Equal(t, "a@x.com", EmailKey("  A@X.com "))
}
