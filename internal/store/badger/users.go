package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// userRecord is the persisted form of domain.User, which hides its hash from JSON.
type userRecord struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
}

func toUserRecord(u *domain.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

func (r *userRecord) toDomain() *domain.User {
	u := &domain.User{Name: r.Name, Email: r.Email, PasswordHash: r.PasswordHash}
	u.ID = r.ID
	u.CreatedAt = r.CreatedAt
	u.UpdatedAt = r.UpdatedAt
	return u
}

// CreateUser inserts a new user.
// Returns store.ErrAlreadyExists if the email is already registered.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		err := s.users.create(txn, user.ID, toUserRecord(user))
		var conflict *conflictError
		if errors.As(err, &conflict) {
			return store.ErrAlreadyExists
		}
		return err
	})
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var rec *userRecord
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		rec, err = s.users.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var rec *userRecord
	err := s.view(ctx, func(txn *badger.Txn) error {
		id, err := s.users.lookup(txn, "email", domain.EmailKey(email))
		if err != nil {
			return err
		}
		rec, err = s.users.get(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}
