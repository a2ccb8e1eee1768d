package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

func newBook(id, title, author string) *domain.Book {
	b := &domain.Book{Title: title, Author: author, Genre: "Fiction"}
	b.ID = id
	return b
}

func setupTestIndex(t *testing.T) *BookIndex {
	t.Helper()

	index, err := NewBookIndex(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	for _, b := range []*domain.Book{
		newBook("book-1", "The Hobbit", "J.R.R. Tolkien"),
		newBook("book-2", "The Fellowship of the Ring", "J.R.R. Tolkien"),
		newBook("book-3", "Dune", "Frank Herbert"),
		newBook("book-4", "Children of Dune", "Frank Herbert"),
		newBook("book-5", "Who?", "Algis Budrys"),
		newBook("book-6", "For Whom the Bell Tolls", "Ernest Hemingway"),
		newBook("book-7", "5 * 5 (a+b)", "Anon"),
	} {
		require.NoError(t, index.IndexBook(b))
	}
	return index
}

func TestBookIndex_SearchBooks(t *testing.T) {
	index := setupTestIndex(t)

	tests := []struct {
		name   string
		title  string
		author string
		want   []string
	}{
		{"title substring", "hob", "", []string{"book-1"}},
		{"title case insensitive", "DUNE", "", []string{"book-3", "book-4"}},
		{"author substring", "", "tolk", []string{"book-1", "book-2"}},
		{"both fields are ANDed", "dune", "herbert", []string{"book-3", "book-4"}},
		{"and excludes mismatches", "hobbit", "herbert", []string{}},
		{"multi word", "of the ring", "", []string{"book-2"}},
		{"dots are literal", "t.e", "", []string{}},
		{"punctuation in author", "", "j.r.r.", []string{"book-1", "book-2"}},
		{"question mark is literal", "who?", "", []string{"book-5"}},
		{"star is literal", "5 * 5", "", []string{"book-7"}},
		{"lone star matches only stars", "*", "", []string{"book-7"}},
		{"regexp syntax is literal", "(a+b)", "", []string{"book-7"}},
		{"plus is literal", "a+", "", []string{"book-7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := index.SearchBooks(tt.title, tt.author)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestBookIndex_EmptyQuery(t *testing.T) {
	index := setupTestIndex(t)

	_, err := index.SearchBooks("", "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	ids, err := index.SearchBooks("**", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBookIndex_Reindex(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.Reindex([]*domain.Book{newBook("book-9", "Emma", "Jane Austen")}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	ids, err := index.SearchBooks("emma", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"book-9"}, ids)

	ids, err = index.SearchBooks("dune", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBookIndex_DeleteBook(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.DeleteBook("book-1"))

	ids, err := index.SearchBooks("hobbit", "")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBookIndex_PersistentPath(t *testing.T) {
	dir := t.TempDir()

	index, err := NewBookIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexBook(newBook("book-1", "Dune", "Frank Herbert")))
	require.NoError(t, index.Close())

	reopened, err := NewBookIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
