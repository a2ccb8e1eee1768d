package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/normalize"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

type bookDoc struct {
	ID            string    `bson:"_id"`
	Title         string    `bson:"title"`
	TitleFold     string    `bson:"title_fold"`
	Author        string    `bson:"author"`
	AuthorFold    string    `bson:"author_fold"`
	Genre         string    `bson:"genre"`
	GenreFold     string    `bson:"genre_fold"`
	PublishedYear int       `bson:"published_year,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (d *bookDoc) toDomain() *domain.Book {
	b := &domain.Book{Title: d.Title, Author: d.Author, Genre: d.Genre, PublishedYear: d.PublishedYear}
	b.ID = d.ID
	b.CreatedAt = d.CreatedAt.UTC()
	b.UpdatedAt = d.UpdatedAt.UTC()
	return b
}

var bookOrder = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// CreateBook inserts a new book. ReviewCount always starts at zero.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.books.InsertOne(ctx, bookDoc{
		ID:            book.ID,
		Title:         book.Title,
		TitleFold:     normalize.Fold(book.Title),
		Author:        book.Author,
		AuthorFold:    normalize.Fold(book.Author),
		Genre:         book.Genre,
		GenreFold:     normalize.Fold(book.Genre),
		PublishedYear: book.PublishedYear,
		CreatedAt:     book.CreatedAt,
		UpdatedAt:     book.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	book.ReviewCount = 0
	return nil
}

// GetBook retrieves a book by ID with its review count.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var doc bookDoc
	err := s.books.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find book: %w", err)
	}

	n, err := s.reviews.CountDocuments(ctx, bson.M{"book_id": id})
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	b := doc.toDomain()
	b.ReviewCount = int(n)
	return b, nil
}

// ListBooks returns a page of books matching filter, oldest first.
func (s *Store) ListBooks(ctx context.Context, filter store.BookFilter, page store.Page) ([]*domain.Book, int, error) {
	query := foldedContains(map[string]string{
		"author_fold": filter.Author,
		"genre_fold":  filter.Genre,
	})

	total, err := s.books.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	opts := options.Find().
		SetSort(bookOrder).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))
	books, err := s.findBooks(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return books, int(total), nil
}

// SearchBooks returns every book matching q, oldest first.
func (s *Store) SearchBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	query := foldedContains(map[string]string{
		"title_fold":  q.Title,
		"author_fold": q.Author,
	})
	return s.findBooks(ctx, query, options.Find().SetSort(bookOrder))
}

// GetBooksByIDs returns the existing books among ids, oldest first.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return []*domain.Book{}, nil
	}
	return s.findBooks(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(bookOrder))
}

func (s *Store) findBooks(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Book, error) {
	cursor, err := s.books.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	books := make([]*domain.Book, len(docs))
	ids := make([]string, len(docs))
	for i := range docs {
		books[i] = docs[i].toDomain()
		ids[i] = docs[i].ID
	}
	if len(books) == 0 {
		return books, nil
	}

	counts, err := s.reviewCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		b.ReviewCount = counts[b.ID]
	}
	return books, nil
}

// reviewCounts returns the number of reviews per book for ids.
func (s *Store) reviewCounts(ctx context.Context, ids []string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"book_id": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{"_id": "$book_id", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate review counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		BookID string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode review counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.BookID] = r.Count
	}
	return counts, nil
}

// foldedContains requires each non-empty term to be a literal substring of
// its folded field.
func foldedContains(terms map[string]string) bson.M {
	filter := bson.M{}
	for field, term := range terms {
		term = normalize.Fold(term)
		if term == "" {
			continue
		}
		filter[field] = bson.M{"$regex": regexp.QuoteMeta(term)}
	}
	return filter
}
