// Package store defines the persistence contracts used by the services.
// Backends live in subpackages (sqlite, badger, mongo).
package store

import (
	"context"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser returns ErrAlreadyExists when the email (case-insensitive) is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

// BookStore persists the catalog.
type BookStore interface {
	CreateBook(ctx context.Context, book *domain.Book) error
	// GetBook returns the book with its current ReviewCount.
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	// ListBooks returns one page of books matching filter, oldest first,
	// along with the total number of matches.
	ListBooks(ctx context.Context, filter BookFilter, page Page) ([]*domain.Book, int, error)
	// SearchBooks returns every book matching q, oldest first.
	SearchBooks(ctx context.Context, q BookQuery) ([]*domain.Book, error)
	// GetBooksByIDs returns the books that exist among ids, oldest first.
	GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error)
}

// ReviewStore persists reviews and keeps each book's ReviewCount in step.
type ReviewStore interface {
	// CreateReview inserts the review and bumps the book's review count in
	// one atomic operation. It returns ErrDuplicateReview when the user has
	// already reviewed the book and ErrNotFound when the book is missing.
	CreateReview(ctx context.Context, review *domain.Review) error
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	// UpdateReview persists Rating, Comment and UpdatedAt.
	UpdateReview(ctx context.Context, review *domain.Review) error
	// DeleteReview removes the review and decrements the book's review count
	// in one atomic operation.
	DeleteReview(ctx context.Context, id string) error
	// ListReviews returns one page of a book's reviews, newest first, with
	// UserName populated, along with the total number of reviews.
	ListReviews(ctx context.Context, bookID string, page Page) ([]*domain.Review, int, error)
	// AverageRating returns the mean rating over all of a book's reviews,
	// or 0 when it has none.
	AverageRating(ctx context.Context, bookID string) (float64, error)
}

// Store is the full persistence surface of the application.
type Store interface {
	UserStore
	BookStore
	ReviewStore

	Ping(ctx context.Context) error
	Close() error
}
