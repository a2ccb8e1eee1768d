package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/normalize"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

const bookColumns = `id, created_at, updated_at, title, author, genre, published_year, review_count`

func scanBook(row scanner) (*domain.Book, error) {
	var (
		b                    domain.Book
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &createdAt, &updatedAt, &b.Title, &b.Author, &b.Genre, &b.PublishedYear, &b.ReviewCount)
	if err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts a new book. ReviewCount always starts at zero.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO books (id, created_at, updated_at, title, title_fold, author, author_fold,
			genre, genre_fold, published_year, review_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.Title, normalize.Fold(book.Title),
		book.Author, normalize.Fold(book.Author),
		book.Genre, normalize.Fold(book.Genre),
		book.PublishedYear,
	)
	if err != nil {
		if isUniqueViolation(err, "books.id") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert book: %w", err)
	}
	book.ReviewCount = 0
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

// ListBooks returns a page of books matching filter, oldest first.
func (s *Store) ListBooks(ctx context.Context, filter store.BookFilter, page store.Page) ([]*domain.Book, int, error) {
	where, args := foldedContains(map[string]string{
		"author_fold": filter.Author,
		"genre_fold":  filter.Genre,
	})

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	pageArgs := append(args, page.Limit, page.Offset())
	books, err := s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books`+where+` ORDER BY created_at, id LIMIT ? OFFSET ?`,
		pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// SearchBooks returns every book matching q, oldest first.
func (s *Store) SearchBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	where, args := foldedContains(map[string]string{
		"title_fold":  q.Title,
		"author_fold": q.Author,
	})
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books`+where+` ORDER BY created_at, id`, args...)
}

// GetBooksByIDs returns the existing books among ids, oldest first.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return []*domain.Book{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id IN (`+placeholders(len(ids))+`) ORDER BY created_at, id`,
		args...)
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// foldedContains builds a WHERE clause requiring each non-empty term to be a
// substring of its folded column. Columns are emitted in sorted order.
func foldedContains(terms map[string]string) (string, []any) {
	columns := make([]string, 0, len(terms))
	for col := range terms {
		columns = append(columns, col)
	}
	slices.Sort(columns)

	var (
		clauses []string
		args    []any
	)
	for _, col := range columns {
		term := normalize.Fold(terms[col])
		if term == "" {
			continue
		}
		clauses = append(clauses, "instr("+col+", ?) > 0")
		args = append(args, term)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
