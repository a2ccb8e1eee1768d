package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/service"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "addBook",
		Method:      http.MethodPost,
		Path:        "/api/books/add",
		Summary:     "Add book",
		Description: "Adds a book to the catalog",
		Tags:        []string{"Books"},
		Middlewares: s.authOptional(),
	}, s.handleAddBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/books",
		Summary:     "List books",
		Description: "Returns a page of books in the order they were added, optionally filtered by author and genre",
		Tags:        []string{"Books"},
		Middlewares: s.authOptional(),
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/books/search",
		Summary:     "Search books",
		Description: "Finds books whose title and author contain the given terms, ignoring case",
		Tags:        []string{"Books"},
		Middlewares: s.authOptional(),
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/books/{bookId}",
		Summary:     "Get book",
		Description: "Returns a book with its average rating and a page of reviews, newest first",
		Tags:        []string{"Books"},
		Middlewares: s.authOptional(),
	}, s.handleGetBook)
}

// === DTOs ===

// AddBookBody is the request body for adding a book.
type AddBookBody struct {
	Title         string `json:"title,omitempty" doc:"Title"`
	Author        string `json:"author,omitempty" doc:"Author"`
	Genre         string `json:"genre,omitempty" doc:"Genre"`
	PublishedYear int    `json:"publishedYear,omitempty" doc:"Year of publication"`
}

// AddBookInput wraps the add book request for Huma.
type AddBookInput struct {
	Body AddBookBody
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// PageParams are the pagination query parameters. They are parsed leniently:
// anything that is not a positive integer falls back to the default.
type PageParams struct {
	Page  string `query:"page" doc:"Page number, starting at 1"`
	Limit string `query:"limit" doc:"Page size"`
}

func (p PageParams) values() (page, limit int) {
	return positiveInt(p.Page), positiveInt(p.Limit)
}

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	PageParams
	Author string `query:"author" doc:"Author contains (case-insensitive)"`
	Genre  string `query:"genre" doc:"Genre contains (case-insensitive)"`
}

// ListBooksOutput wraps a page of books for Huma.
type ListBooksOutput struct {
	Body *service.BookList
}

// SearchBooksInput contains the search terms.
type SearchBooksInput struct {
	Title  string `query:"title" doc:"Title contains (case-insensitive)"`
	Author string `query:"author" doc:"Author contains (case-insensitive)"`
}

// SearchBooksOutput wraps the matching books for Huma.
type SearchBooksOutput struct {
	Body []*domain.Book
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	PageParams
	BookID string `path:"bookId" doc:"Book ID"`
}

// GetBookOutput wraps the book detail for Huma.
type GetBookOutput struct {
	Body *service.BookDetail
}

// === Handlers ===

func (s *Server) handleAddBook(ctx context.Context, input *AddBookInput) (*BookOutput, error) {
	book, err := s.services.Book.AddBook(ctx, service.AddBookRequest{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		Genre:         input.Body.Genre,
		PublishedYear: input.Body.PublishedYear,
	})
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	page, limit := input.values()
	list, err := s.services.Book.ListBooks(ctx, service.ListBooksRequest{
		Page:   page,
		Limit:  limit,
		Author: input.Author,
		Genre:  input.Genre,
	})
	if err != nil {
		return nil, err
	}
	return &ListBooksOutput{Body: list}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	books, err := s.services.Book.SearchBooks(ctx, store.BookQuery{
		Title:  input.Title,
		Author: input.Author,
	})
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []*domain.Book{}
	}
	return &SearchBooksOutput{Body: books}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*GetBookOutput, error) {
	page, limit := input.values()
	detail, err := s.services.Book.GetBookDetail(ctx, input.BookID, page, limit)
	if err != nil {
		return nil, err
	}
	return &GetBookOutput{Body: detail}, nil
}

// positiveInt parses raw, returning 0 for anything that is not a positive integer.
func positiveInt(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
