package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/validation"
)

// DefaultReviewPageLimit is the number of reviews shown per detail page.
const DefaultReviewPageLimit = 5

const (
	msgBookNotFound = "Book not found"
	msgEmptySearch  = "Please provide a title or author to search"
)

// BookService manages the catalog and the book detail view.
type BookService struct {
	books    store.BookStore
	reviews  store.ReviewStore
	index    *search.BookIndex // nil disables the index
	validate *validation.Validator
	now      func() time.Time
	logger   *slog.Logger
}

// NewBookService creates a new book service. index may be nil, in which case
// searches go straight to the store.
func NewBookService(books store.BookStore, reviews store.ReviewStore, index *search.BookIndex, logger *slog.Logger) *BookService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookService{
		books:    books,
		reviews:  reviews,
		index:    index,
		validate: validation.New(),
		now:      time.Now,
		logger:   logger,
	}
}

// AddBookRequest contains the data for a new catalog entry.
type AddBookRequest struct {
	Title         string `json:"title" validate:"required,max=500"`
	Author        string `json:"author" validate:"required,max=300"`
	Genre         string `json:"genre" validate:"required,max=100"`
	PublishedYear int    `json:"publishedYear" validate:"gte=0,lte=9999"`
}

// ListBooksRequest selects a page of the catalog.
type ListBooksRequest struct {
	Page   int
	Limit  int
	Author string
	Genre  string
}

// BookList is one page of the catalog.
type BookList struct {
	Total       int            `json:"total"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	Books       []*domain.Book `json:"books"`
}

// ReviewPage is one page of a book's reviews.
type ReviewPage struct {
	Total       int              `json:"total"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
	Data        []*domain.Review `json:"data"`
}

// BookDetail is a book with its rating summary and a page of reviews.
type BookDetail struct {
	Book          *domain.Book `json:"book"`
	AverageRating float64      `json:"averageRating"`
	Reviews       ReviewPage   `json:"reviews"`
}

// AddBook validates and stores a new book.
func (s *BookService) AddBook(ctx context.Context, req AddBookRequest) (*domain.Book, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Genre = strings.TrimSpace(req.Genre)

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	book, err := domain.NewBook(req.Title, req.Author, req.Genre, req.PublishedYear, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	if s.index != nil {
		if err := s.index.IndexBook(book); err != nil {
			s.logger.Warn("Failed to index book", "book_id", book.ID, "error", err)
		}
	}

	s.logger.Info("Book added", "book_id", book.ID)
	return book, nil
}

// ListBooks returns a filtered page of books in insertion order.
func (s *BookService) ListBooks(ctx context.Context, req ListBooksRequest) (*BookList, error) {
	page := store.NewPage(req.Page, req.Limit, store.DefaultPageLimit)
	filter := store.BookFilter{Author: req.Author, Genre: req.Genre}

	books, total, err := s.books.ListBooks(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	return &BookList{
		Total:       total,
		CurrentPage: page.Number,
		TotalPages:  page.TotalPages(total),
		Books:       books,
	}, nil
}

// SearchBooks finds books whose title and author contain the given terms.
// At least one term is required.
func (s *BookService) SearchBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	if q.Empty() {
		return nil, domainerrors.Validation(msgEmptySearch)
	}

	if s.index != nil {
		ids, err := s.index.SearchBooks(q.Title, q.Author)
		if err == nil {
			books, err := s.books.GetBooksByIDs(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("load search results: %w", err)
			}
			return books, nil
		}
		s.logger.Warn("Search index query failed, falling back to store", "error", err)
	}

	books, err := s.books.SearchBooks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return books, nil
}

// GetBookDetail returns the book, its average rating over all reviews and
// one page of reviews, newest first.
func (s *BookService) GetBookDetail(ctx context.Context, bookID string, pageNum, limit int) (*BookDetail, error) {
	page := store.NewPage(pageNum, limit, DefaultReviewPageLimit)

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgBookNotFound)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	reviews, total, err := s.reviews.ListReviews(ctx, bookID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	avg, err := s.reviews.AverageRating(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}

	return &BookDetail{
		Book:          book,
		AverageRating: avg,
		Reviews: ReviewPage{
			Total:       total,
			CurrentPage: page.Number,
			TotalPages:  page.TotalPages(total),
			Data:        reviews,
		},
	}, nil
}

// Reindex rebuilds the search index from the store.
func (s *BookService) Reindex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	start := time.Now()
	books, err := s.books.SearchBooks(ctx, store.BookQuery{})
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}
	if err := s.index.Reindex(books); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	s.logger.Info("Search index rebuilt", "books", len(books), "duration", time.Since(start))
	return nil
}
