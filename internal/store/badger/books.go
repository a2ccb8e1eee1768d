package badger

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

func byCreation(a, b *domain.Book) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// CreateBook inserts a new book. ReviewCount always starts at zero.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	book.ReviewCount = 0
	return s.update(ctx, func(txn *badger.Txn) error {
		return s.books.create(txn, book.ID, book)
	})
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var book *domain.Book
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		book, err = s.books.get(txn, id)
		return err
	})
	return book, err
}

// ListBooks returns a page of books matching filter, oldest first.
func (s *Store) ListBooks(ctx context.Context, filter store.BookFilter, page store.Page) ([]*domain.Book, int, error) {
	matches, err := s.matchingBooks(ctx, filter.Matches)
	if err != nil {
		return nil, 0, err
	}
	return store.Slice(matches, page), len(matches), nil
}

// SearchBooks returns every book matching q, oldest first.
func (s *Store) SearchBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	return s.matchingBooks(ctx, q.Matches)
}

// GetBooksByIDs returns the existing books among ids, oldest first.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error) {
	books := []*domain.Book{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, id := range ids {
			b, err := s.books.get(txn, id)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			books = append(books, b)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(books, byCreation)
	return books, nil
}

func (s *Store) matchingBooks(ctx context.Context, match func(*domain.Book) bool) ([]*domain.Book, error) {
	books := []*domain.Book{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		return s.books.scan(txn, func(b *domain.Book) error {
			if match(b) {
				books = append(books, b)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(books, byCreation)
	return books, nil
}
