package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// reviewSelect joins the author's name so listings need no second query.
const reviewSelect = `SELECT r.id, r.created_at, r.updated_at, r.book_id, r.user_id,
	COALESCE(u.name, ''), r.rating, r.comment
	FROM reviews r LEFT JOIN users u ON u.id = r.user_id`

func scanReview(row scanner) (*domain.Review, error) {
	var (
		r                    domain.Review
		createdAt, updatedAt string
	)
	err := row.Scan(&r.ID, &createdAt, &updatedAt, &r.BookID, &r.UserID, &r.UserName, &r.Rating, &r.Comment)
	if err != nil {
		return nil, err
	}

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReview inserts the review and increments the book's review count in
// a single transaction.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	// Bumping the counter first tells a missing book apart from a missing
	// user: the only foreign key left to fail on insert is user_id.
	res, err := tx.ExecContext(ctx, `UPDATE books SET review_count = review_count + 1 WHERE id = ?`, review.BookID)
	if err != nil {
		return fmt.Errorf("increment review count: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return store.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, created_at, updated_at, book_id, user_id, rating, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
		review.BookID,
		review.UserID,
		review.Rating,
		review.Comment,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "reviews.user_id"):
			return store.ErrDuplicateReview
		case isForeignKeyViolation(err):
			return store.ErrUserNotFound
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return tx.Commit()
}

// GetReview retrieves a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

// UpdateReview persists the rating, comment and update time.
func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?`,
		review.Rating, review.Comment, formatTime(review.UpdatedAt), review.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReview removes the review and decrements the book's review count in
// a single transaction.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var bookID string
	err = tx.QueryRowContext(ctx, `DELETE FROM reviews WHERE id = ? RETURNING book_id`, id).Scan(&bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET review_count = MAX(review_count - 1, 0) WHERE id = ?`, bookID); err != nil {
		return fmt.Errorf("decrement review count: %w", err)
	}

	return tx.Commit()
}

// ListReviews returns a page of a book's reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, bookID string, page store.Page) ([]*domain.Review, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE book_id = ?`, bookID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		reviewSelect+` WHERE r.book_id = ? ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`,
		bookID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// AverageRating returns the mean rating of a book's reviews, 0 when none.
func (s *Store) AverageRating(ctx context.Context, bookID string) (float64, error) {
	var avg float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0.0) FROM reviews WHERE book_id = ?`, bookID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("average rating: %w", err)
	}
	return avg, nil
}
