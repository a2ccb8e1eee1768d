package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

type reviewDoc struct {
	ID        string    `bson:"_id"`
	BookID    string    `bson:"book_id"`
	UserID    string    `bson:"user_id"`
	UserName  string    `bson:"user_name,omitempty"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d *reviewDoc) toDomain() *domain.Review {
	r := &domain.Review{
		BookID:   d.BookID,
		UserID:   d.UserID,
		UserName: d.UserName,
		Rating:   d.Rating,
		Comment:  d.Comment,
	}
	r.ID = d.ID
	r.CreatedAt = d.CreatedAt.UTC()
	r.UpdatedAt = d.UpdatedAt.UTC()
	return r
}

// withUserName joins the author's name into user_name.
var withUserName = mongo.Pipeline{
	{{Key: "$lookup", Value: bson.M{
		"from":         usersCollection,
		"localField":   "user_id",
		"foreignField": "_id",
		"as":           "author",
	}}},
	{{Key: "$addFields", Value: bson.M{
		"user_name": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$author.name", 0}}, ""}},
	}}},
	{{Key: "$project", Value: bson.M{"author": 0}}},
}

// CreateReview inserts a review for an existing book and user. The unique
// (user_id, book_id) index rejects a second review of the same book.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	ok, err := exists(ctx, s.books, bson.M{"_id": review.BookID})
	if err != nil {
		return fmt.Errorf("check book: %w", err)
	}
	if !ok {
		return store.ErrNotFound
	}
	if ok, err = exists(ctx, s.users, bson.M{"_id": review.UserID}); err != nil {
		return fmt.Errorf("check user: %w", err)
	} else if !ok {
		return store.ErrUserNotFound
	}

	_, err = s.reviews.InsertOne(ctx, reviewDoc{
		ID:        review.ID,
		BookID:    review.BookID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicateReview
	}
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetReview retrieves a review by ID.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	pipeline := append(mongo.Pipeline{{{Key: "$match", Value: bson.M{"_id": id}}}}, withUserName...)
	reviews, err := s.aggregateReviews(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, store.ErrNotFound
	}
	return reviews[0], nil
}

// UpdateReview persists the rating, comment and update time.
func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	res, err := s.reviews.UpdateOne(ctx,
		bson.M{"_id": review.ID},
		bson.M{"$set": bson.M{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"updated_at": review.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReview removes a review.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListReviews returns a page of a book's reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, bookID string, page store.Page) ([]*domain.Review, int, error) {
	total, err := s.reviews.CountDocuments(ctx, bson.M{"book_id": bookID})
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"book_id": bookID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(page.Offset())}},
		{{Key: "$limit", Value: int64(page.Limit)}},
	}
	reviews, err := s.aggregateReviews(ctx, append(pipeline, withUserName...))
	if err != nil {
		return nil, 0, err
	}
	return reviews, int(total), nil
}

// AverageRating returns the mean rating of a book's reviews, 0 when none.
func (s *Store) AverageRating(ctx context.Context, bookID string) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"book_id": bookID}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "avg": bson.M{"$avg": "$rating"}}}},
	}
	cursor, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregate average: %w", err)
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return 0, cursor.Err()
	}
	var row struct {
		Avg float64 `bson:"avg"`
	}
	if err := cursor.Decode(&row); err != nil {
		return 0, fmt.Errorf("decode average: %w", err)
	}
	return row.Avg, nil
}

func (s *Store) aggregateReviews(ctx context.Context, pipeline mongo.Pipeline) ([]*domain.Review, error) {
	cursor, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []*domain.Review{}, nil
		}
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	reviews := make([]*domain.Review, len(docs))
	for i := range docs {
		reviews[i] = docs[i].toDomain()
	}
	return reviews, nil
}
