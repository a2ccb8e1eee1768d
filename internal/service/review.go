package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/validation"
)

const (
	msgReviewNotFound  = "Review not found"
	msgDuplicateReview = "You already reviewed this book"
	msgNotReviewOwner  = "You are not authorized to %s this review"
	msgLoginRequired   = "Login required"
	msgAccountGone     = "Your account no longer exists"
)

// ReviewService enforces review ownership and the one-review-per-book rule.
type ReviewService struct {
	store    store.ReviewStore
	validate *validation.Validator
	now      func() time.Time
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.ReviewStore, logger *slog.Logger) *ReviewService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReviewService{
		store:    store,
		validate: validation.New(),
		now:      time.Now,
		logger:   logger,
	}
}

// AddReviewRequest is a new rating of a book.
type AddReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=5000"`
}

// UpdateReviewRequest changes the fields that are set.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=5000"`
}

// AddReview records caller's review of bookID. A user may review a book once.
func (s *ReviewService) AddReview(ctx context.Context, caller auth.Identity, bookID string, req AddReviewRequest) (*domain.Review, error) {
	if caller.ID == "" {
		return nil, domainerrors.Unauthorized(msgLoginRequired)
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	review, err := domain.NewReview(bookID, caller.ID, req.Rating, req.Comment, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateReview(ctx, review); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateReview):
			return nil, domainerrors.Wrap(err, domainerrors.CodeDuplicateReview, msgDuplicateReview)
		case errors.Is(err, store.ErrUserNotFound):
			return nil, domainerrors.Unauthorized(msgAccountGone)
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound(msgBookNotFound)
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	review.UserName = caller.Name
	s.logger.Info("Review added", "review_id", review.ID, "book_id", bookID, "user_id", caller.ID)
	return review, nil
}

// UpdateReview applies req to a review owned by caller.
func (s *ReviewService) UpdateReview(ctx context.Context, caller auth.Identity, reviewID string, req UpdateReviewRequest) (*domain.Review, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	review, err := s.ownedReview(ctx, caller, reviewID, "update")
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if err := domain.ValidateRating(*req.Rating); err != nil {
			return nil, err
		}
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}
	review.Touch(s.now())

	if err := s.store.UpdateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgReviewNotFound)
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.Info("Review updated", "review_id", review.ID, "user_id", caller.ID)
	return review, nil
}

// DeleteReview removes a review owned by caller.
func (s *ReviewService) DeleteReview(ctx context.Context, caller auth.Identity, reviewID string) error {
	review, err := s.ownedReview(ctx, caller, reviewID, "delete")
	if err != nil {
		return err
	}

	if err := s.store.DeleteReview(ctx, review.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound(msgReviewNotFound)
		}
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.Info("Review deleted", "review_id", review.ID, "book_id", review.BookID, "user_id", caller.ID)
	return nil
}

func (s *ReviewService) ownedReview(ctx context.Context, caller auth.Identity, reviewID, action string) (*domain.Review, error) {
	if caller.ID == "" {
		return nil, domainerrors.Unauthorized(msgLoginRequired)
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgReviewNotFound)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	if !review.OwnedBy(caller.ID) {
		return nil, domainerrors.Unauthorized(fmt.Sprintf(msgNotReviewOwner, action))
	}
	return review, nil
}
