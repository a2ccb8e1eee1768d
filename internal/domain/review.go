package domain

import (
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/id"
)

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a single user's rating of a book. There is at most one review
// per (UserID, BookID).
type Review struct {
	Timestamps
	BookID   string `json:"bookId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// NewReview builds a review after checking the rating range.
func NewReview(bookID, userID string, rating int, comment string, now time.Time) (*Review, error) {
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}

	reviewID, err := id.Generate(id.Review)
	if err != nil {
		return nil, err
	}

	r := &Review{
		BookID:  bookID,
		UserID:  userID,
		Rating:  rating,
		Comment: comment,
	}
	r.ID = reviewID
	r.InitTimestamps(now)
	return r, nil
}

// OwnedBy reports whether userID wrote this review.
func (r *Review) OwnedBy(userID string) bool {
	return userID != "" && r.UserID == userID
}

// ValidateRating returns a validation error unless rating is in [MinRating, MaxRating].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return errors.Validationf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}
