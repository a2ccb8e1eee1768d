package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

func seedBooks(t *testing.T, svc *BookService) []*domain.Book {
	t.Helper()
	reqs := []AddBookRequest{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1937},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1965},
		{Title: "Children of Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1976},
	}
	books := make([]*domain.Book, 0, len(reqs))
	for _, req := range reqs {
		b, err := svc.AddBook(context.Background(), req)
		require.NoError(t, err)
		books = append(books, b)
	}
	return books
}

func titles(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func TestAddBook(t *testing.T) {
	env := newTestEnv(t, false)

	book, err := env.books.AddBook(context.Background(), AddBookRequest{
		Title: "  Dune ", Author: " Frank Herbert", Genre: "Sci-Fi", PublishedYear: 1965,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, 0, book.ReviewCount)

	stored, err := env.store.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", stored.Title)
}

func TestAddBook_Validation(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []AddBookRequest{
		{Author: "A", Genre: "G"},
		{Title: "T", Genre: "G"},
		{Title: "T", Author: "A"},
		{Title: "  ", Author: "A", Genre: "G"},
		{Title: "T", Author: "A", Genre: "G", PublishedYear: -1},
	}
	for i, req := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := env.books.AddBook(context.Background(), req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestListBooks(t *testing.T) {
	env := newTestEnv(t, false)
	seedBooks(t, env.books)
	ctx := context.Background()

	list, err := env.books.ListBooks(ctx, ListBooksRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 1, list.CurrentPage)
	assert.Equal(t, 1, list.TotalPages)
	assert.Equal(t, []string{"The Hobbit", "Dune", "Children of Dune"}, titles(list.Books))

	list, err = env.books.ListBooks(ctx, ListBooksRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, list.CurrentPage)
	assert.Equal(t, 2, list.TotalPages)
	assert.Equal(t, []string{"Children of Dune"}, titles(list.Books))

	list, err = env.books.ListBooks(ctx, ListBooksRequest{Author: "HERBERT", Genre: "fiction"})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	list, err = env.books.ListBooks(ctx, ListBooksRequest{Page: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Empty(t, list.Books)
	assert.NotNil(t, list.Books)
}

func TestSearchBooks(t *testing.T) {
	for _, withIndex := range []bool{false, true} {
		t.Run(fmt.Sprintf("index=%v", withIndex), func(t *testing.T) {
			env := newTestEnv(t, withIndex)
			seedBooks(t, env.books)
			ctx := context.Background()

			books, err := env.books.SearchBooks(ctx, store.BookQuery{Title: "dune"})
			require.NoError(t, err)
			assert.Equal(t, []string{"Dune", "Children of Dune"}, titles(books))

			books, err = env.books.SearchBooks(ctx, store.BookQuery{Title: "dune", Author: "tolkien"})
			require.NoError(t, err)
			assert.Empty(t, books)

			books, err = env.books.SearchBooks(ctx, store.BookQuery{Author: "TOLK"})
			require.NoError(t, err)
			assert.Equal(t, []string{"The Hobbit"}, titles(books))

			_, err = env.books.SearchBooks(ctx, store.BookQuery{})
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestSearchBooks_IndexAgreesWithStore(t *testing.T) {
	queries := []store.BookQuery{
		{Title: "who?"},
		{Title: "*"},
		{Title: "5 * 5"},
		{Title: "(a+b)"},
		{Title: "100%"},
		{Title: "a_b"},
		{Title: "t.e"},
		{Author: "j.r.r."},
		{Title: "whom", Author: "hemingway"},
	}
	reqs := []AddBookRequest{
		{Title: "Who?", Author: "Algis Budrys", Genre: "Science Fiction", PublishedYear: 1958},
		{Title: "For Whom the Bell Tolls", Author: "Ernest Hemingway", Genre: "War", PublishedYear: 1940},
		{Title: "5 * 5 (a+b)", Author: "Anon", Genre: "Math", PublishedYear: 2001},
		{Title: "100% Pure", Author: "Anon", Genre: "Math", PublishedYear: 2002},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1937},
	}

	run := func(withIndex bool) [][]string {
		env := newTestEnv(t, withIndex)
		ctx := context.Background()
		for _, req := range reqs {
			_, err := env.books.AddBook(ctx, req)
			require.NoError(t, err)
		}
		results := make([][]string, len(queries))
		for i, q := range queries {
			books, err := env.books.SearchBooks(ctx, q)
			require.NoError(t, err)
			results[i] = titles(books)
		}
		return results
	}

	fromStore := run(false)
	fromIndex := run(true)
	for i, q := range queries {
		assert.Equal(t, fromStore[i], fromIndex[i], "query %+v", q)
	}
	assert.Equal(t, []string{"Who?"}, fromIndex[0])
	assert.Equal(t, []string{"5 * 5 (a+b)"}, fromIndex[1])
	assert.Empty(t, fromIndex[5])
}

func TestReindex(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	// Books written behind the service's back are picked up by a rebuild.
	b, err := domain.NewBook("Emma", "Jane Austen", "Classic", 1815, env.books.now())
	require.NoError(t, err)
	require.NoError(t, env.store.CreateBook(ctx, b))

	require.NoError(t, env.books.Reindex(ctx))

	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	books, err := env.books.SearchBooks(ctx, store.BookQuery{Author: "austen"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Emma"}, titles(books))
}

func TestGetBookDetail_NotFound(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.books.GetBookDetail(context.Background(), "book-missing", 0, 0)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetBookDetail_Empty(t *testing.T) {
	env := newTestEnv(t, false)
	books := seedBooks(t, env.books)

	detail, err := env.books.GetBookDetail(context.Background(), books[0].ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, books[0].ID, detail.Book.ID)
	assert.Zero(t, detail.AverageRating)
	assert.Equal(t, 0, detail.Reviews.Total)
	assert.Equal(t, 1, detail.Reviews.CurrentPage)
	assert.Equal(t, 0, detail.Reviews.TotalPages)
	assert.Empty(t, detail.Reviews.Data)
}
