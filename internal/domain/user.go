package domain

import (
	"strings"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/id"
)

// User represents a registered account.
type User struct {
	Timestamps
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// NewUser builds a persistable user. The password is hashed here so that no
// caller can ever store a plaintext credential.
func NewUser(name, email, password string, now time.Time) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, errors.Validation("Incomplete information!")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid password")
	}

	userID, err := id.Generate(id.User)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	u.ID = userID
	u.InitTimestamps(now)
	return u, nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) (bool, error) {
	return auth.VerifyPassword(u.PasswordHash, password)
}

// Identity returns the claims carried by this user's tokens.
func (u *User) Identity() auth.Identity {
	return auth.Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// EmailKey is the case-insensitive form of an email address used for
// uniqueness checks and lookups.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
