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

// CreateReview inserts the review and increments the book's review count in
// a single transaction.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		book, err := s.books.get(txn, review.BookID)
		if err != nil {
			return err
		}
		if _, err := s.users.get(txn, review.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return store.ErrUserNotFound
			}
			return err
		}

		stored := *review
		stored.UserName = ""
		err = s.reviews.create(txn, review.ID, &stored)
		var conflict *conflictError
		if errors.As(err, &conflict) && conflict.index == "pair" {
			return store.ErrDuplicateReview
		}
		if err != nil {
			return err
		}

		book.ReviewCount++
		return s.books.put(txn, book.ID, book)
	})
}

// GetReview retrieves a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	var review *domain.Review
	err := s.view(ctx, func(txn *badger.Txn) error {
		var err error
		if review, err = s.reviews.get(txn, id); err != nil {
			return err
		}
		s.attachUserNames(txn, []*domain.Review{review})
		return nil
	})
	return review, err
}

// UpdateReview persists the rating, comment and update time.
func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		existing, err := s.reviews.get(txn, review.ID)
		if err != nil {
			return err
		}
		existing.Rating = review.Rating
		existing.Comment = review.Comment
		existing.UpdatedAt = review.UpdatedAt
		return s.reviews.put(txn, existing.ID, existing)
	})
}

// DeleteReview removes the review and decrements the book's review count in
// a single transaction.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		old, err := s.reviews.delete(txn, id)
		if err != nil {
			return err
		}

		book, err := s.books.get(txn, old.BookID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		book.ReviewCount = max(book.ReviewCount-1, 0)
		return s.books.put(txn, book.ID, book)
	})
}

// ListReviews returns a page of a book's reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, bookID string, page store.Page) ([]*domain.Review, int, error) {
	var (
		pageItems []*domain.Review
		total     int
	)
	err := s.view(ctx, func(txn *badger.Txn) error {
		reviews, err := s.bookReviews(txn, bookID)
		if err != nil {
			return err
		}
		slices.SortFunc(reviews, func(a, b *domain.Review) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})

		total = len(reviews)
		pageItems = store.Slice(reviews, page)
		s.attachUserNames(txn, pageItems)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return pageItems, total, nil
}

// AverageRating returns the mean rating of a book's reviews, 0 when none.
func (s *Store) AverageRating(ctx context.Context, bookID string) (float64, error) {
	var avg float64
	err := s.view(ctx, func(txn *badger.Txn) error {
		reviews, err := s.bookReviews(txn, bookID)
		if err != nil || len(reviews) == 0 {
			return err
		}
		sum := 0
		for _, r := range reviews {
			sum += r.Rating
		}
		avg = float64(sum) / float64(len(reviews))
		return nil
	})
	return avg, err
}

func (s *Store) bookReviews(txn *badger.Txn, bookID string) ([]*domain.Review, error) {
	ids, err := s.reviews.scanIndex(txn, "book", bookID+":")
	if err != nil {
		return nil, err
	}

	reviews := make([]*domain.Review, 0, len(ids))
	for _, id := range ids {
		r, err := s.reviews.get(txn, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, nil
}

// attachUserNames fills UserName from the user records; unknown users stay blank.
func (s *Store) attachUserNames(txn *badger.Txn, reviews []*domain.Review) {
	names := make(map[string]string)
	for _, r := range reviews {
		name, ok := names[r.UserID]
		if !ok {
			if u, err := s.users.get(txn, r.UserID); err == nil {
				name = u.Name
			}
			names[r.UserID] = name
		}
		r.UserName = name
	}
}
