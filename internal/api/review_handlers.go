package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "addReview",
		Method:        http.MethodPost,
		Path:          "/api/books/{bookId}/reviews",
		Summary:       "Review book",
		Description:   "Adds the caller's review of a book. Each user may review a book once.",
		Tags:          []string{"Reviews"},
		DefaultStatus: http.StatusCreated,
		Security:      authSecurity,
		Middlewares:   s.authRequired(),
	}, s.handleAddReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPut,
		Path:        "/api/reviews/{reviewId}",
		Summary:     "Update review",
		Description: "Changes the rating or comment of the caller's own review",
		Tags:        []string{"Reviews"},
		Security:    authSecurity,
		Middlewares: s.authRequired(),
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/reviews/{reviewId}",
		Summary:     "Delete review",
		Description: "Deletes the caller's own review",
		Tags:        []string{"Reviews"},
		Security:    authSecurity,
		Middlewares: s.authRequired(),
	}, s.handleDeleteReview)
}

// === DTOs ===

// AddReviewBody is the request body for a new review.
type AddReviewBody struct {
	Rating  int    `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	Comment string `json:"comment,omitempty" doc:"Review text"`
}

// AddReviewInput wraps the add review request for Huma.
type AddReviewInput struct {
	BookID string `path:"bookId" doc:"Book ID"`
	Body   AddReviewBody
}

// UpdateReviewBody is the request body for updating a review. Omitted fields
// are left unchanged.
type UpdateReviewBody struct {
	Rating  *int    `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	Comment *string `json:"comment,omitempty" doc:"Review text"`
}

// UpdateReviewInput wraps the update review request for Huma.
type UpdateReviewInput struct {
	ReviewID string `path:"reviewId" doc:"Review ID"`
	Body     UpdateReviewBody
}

// DeleteReviewInput contains parameters for deleting a review.
type DeleteReviewInput struct {
	ReviewID string `path:"reviewId" doc:"Review ID"`
}

// ReviewOutput wraps a review for Huma.
type ReviewOutput struct {
	Body *domain.Review
}

// DeleteReviewOutput confirms a deletion.
type DeleteReviewOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleAddReview(ctx context.Context, input *AddReviewInput) (*ReviewOutput, error) {
	caller, _ := IdentityFrom(ctx)
	review, err := s.services.Review.AddReview(ctx, caller, input.BookID, service.AddReviewRequest{
		Rating:  input.Body.Rating,
		Comment: input.Body.Comment,
	})
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	caller, _ := IdentityFrom(ctx)
	review, err := s.services.Review.UpdateReview(ctx, caller, input.ReviewID, service.UpdateReviewRequest{
		Rating:  input.Body.Rating,
		Comment: input.Body.Comment,
	})
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *DeleteReviewInput) (*DeleteReviewOutput, error) {
	caller, _ := IdentityFrom(ctx)
	if err := s.services.Review.DeleteReview(ctx, caller, input.ReviewID); err != nil {
		return nil, err
	}
	return &DeleteReviewOutput{Body: MessageResponse{Message: "Review deleted successfully"}}, nil
}
