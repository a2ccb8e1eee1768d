// Package storetest holds behavior tests shared by every store backend.
package storetest

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// Factory returns an empty store that is closed when the test ends.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// MakeUser builds a user with a fixed creation time.
func MakeUser(id, name, email string) *domain.User {
	u := &domain.User{Name: name, Email: email, PasswordHash: "$argon2id$test"}
	u.ID = id
	u.InitTimestamps(base)
	return u
}

// MakeBook builds a book created offset after a fixed base time.
func MakeBook(id, title, author, genre string, offset time.Duration) *domain.Book {
	b := &domain.Book{Title: title, Author: author, Genre: genre, PublishedYear: 2000}
	b.ID = id
	b.InitTimestamps(base.Add(offset))
	return b
}

// MakeReview builds a review created offset after a fixed base time.
func MakeReview(id, bookID, userID string, rating int, offset time.Duration) *domain.Review {
	r := &domain.Review{BookID: bookID, UserID: userID, Rating: rating, Comment: "comment " + id}
	r.ID = id
	r.InitTimestamps(base.Add(offset))
	return r
}

// Run exercises the full store.Store contract against newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Books", func(t *testing.T) { testBooks(t, newStore(t)) })
	t.Run("ListBooks", func(t *testing.T) { testListBooks(t, newStore(t)) })
	t.Run("SearchBooks", func(t *testing.T) { testSearchBooks(t, newStore(t)) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, newStore(t)) })
	t.Run("ReviewCounter", func(t *testing.T) { testReviewCounter(t, newStore(t)) })
	t.Run("ListReviews", func(t *testing.T) { testListReviews(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, MakeUser("usr-1", "Alice", "Alice@Example.com")))

	got, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "Alice@Example.com", got.Email)
	assert.Equal(t, "$argon2id$test", got.PasswordHash)
	assert.True(t, base.Equal(got.CreatedAt))

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", byEmail.ID)

	err = s.CreateUser(ctx, MakeUser("usr-2", "Other", "ALICE@example.com"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.GetUser(ctx, "usr-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testBooks(t *testing.T, s store.Store) {
	ctx := context.Background()

	book := MakeBook("book-1", "Dune", "Frank Herbert", "Sci-Fi", 0)
	require.NoError(t, s.CreateBook(ctx, book))

	got, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, "Frank Herbert", got.Author)
	assert.Equal(t, "Sci-Fi", got.Genre)
	assert.Equal(t, 2000, got.PublishedYear)
	assert.Equal(t, 0, got.ReviewCount)
	assert.True(t, book.CreatedAt.Equal(got.CreatedAt))

	_, err = s.GetBook(ctx, "book-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateBook(ctx, MakeBook("book-2", "Emma", "Jane Austen", "Classic", time.Minute)))

	byIDs, err := s.GetBooksByIDs(ctx, []string{"book-2", "book-missing", "book-1"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "book-1", byIDs[0].ID)
	assert.Equal(t, "book-2", byIDs[1].ID)

	empty, err := s.GetBooksByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func seedCatalog(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	books := []*domain.Book{
		MakeBook("book-1", "The Hobbit", "J.R.R. Tolkien", "Fantasy", 0),
		MakeBook("book-2", "Dune", "Frank Herbert", "Science Fiction", time.Minute),
		MakeBook("book-3", "The Fellowship of the Ring", "J.R.R. Tolkien", "Fantasy", 2*time.Minute),
		MakeBook("book-4", "Children of Dune", "Frank Herbert", "Science Fiction", 3*time.Minute),
		MakeBook("book-5", "Emma", "Jane Austen", "Classic", 4*time.Minute),
	}
	for _, b := range books {
		require.NoError(t, s.CreateBook(ctx, b))
	}
}

func ids(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func testListBooks(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedCatalog(t, s)

	tests := []struct {
		name      string
		filter    store.BookFilter
		page      store.Page
		wantIDs   []string
		wantTotal int
	}{
		{"first page oldest first", store.BookFilter{}, store.Page{Number: 1, Limit: 2}, []string{"book-1", "book-2"}, 5},
		{"second page", store.BookFilter{}, store.Page{Number: 2, Limit: 2}, []string{"book-3", "book-4"}, 5},
		{"last partial page", store.BookFilter{}, store.Page{Number: 3, Limit: 2}, []string{"book-5"}, 5},
		{"past the end", store.BookFilter{}, store.Page{Number: 9, Limit: 2}, []string{}, 5},
		{"largest page number", store.BookFilter{}, store.NewPage(math.MaxInt, 10, 10), []string{}, 5},
		{"offset beyond int range", store.BookFilter{}, store.Page{Number: math.MaxInt, Limit: 2}, []string{}, 5},
		{"author substring any case", store.BookFilter{Author: "TOLK"}, store.Page{Number: 1, Limit: 10}, []string{"book-1", "book-3"}, 2},
		{"genre substring", store.BookFilter{Genre: "fiction"}, store.Page{Number: 1, Limit: 10}, []string{"book-2", "book-4"}, 2},
		{"author and genre", store.BookFilter{Author: "herbert", Genre: "fantasy"}, store.Page{Number: 1, Limit: 10}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, total, err := s.ListBooks(ctx, tt.filter, tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Equal(t, tt.wantIDs, ids(books))
		})
	}
}

func testSearchBooks(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedCatalog(t, s)

	tests := []struct {
		name  string
		query store.BookQuery
		want  []string
	}{
		{"title", store.BookQuery{Title: "dune"}, []string{"book-2", "book-4"}},
		{"author", store.BookQuery{Author: "austen"}, []string{"book-5"}},
		{"both ANDed", store.BookQuery{Title: "the", Author: "tolkien"}, []string{"book-1", "book-3"}},
		{"no match", store.BookQuery{Title: "zzz"}, []string{}},
		{"special characters are literal", store.BookQuery{Author: "j.r.r."}, []string{"book-1", "book-3"}},
		{"regexp metacharacters do not match", store.BookQuery{Title: "d.ne"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := s.SearchBooks(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(books))
		})
	}
}

func seedUsersAndBook(t *testing.T, s store.Store, users int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= users; i++ {
		u := MakeUser(fmt.Sprintf("usr-%d", i), fmt.Sprintf("User %d", i), fmt.Sprintf("user%d@example.com", i))
		require.NoError(t, s.CreateUser(ctx, u))
	}
	require.NoError(t, s.CreateBook(ctx, MakeBook("book-1", "Dune", "Frank Herbert", "Sci-Fi", 0)))
}

func testReviews(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUsersAndBook(t, s, 2)

	require.NoError(t, s.CreateReview(ctx, MakeReview("rev-1", "book-1", "usr-1", 5, time.Minute)))

	got, err := s.GetReview(ctx, "rev-1")
	require.NoError(t, err)
	assert.Equal(t, "book-1", got.BookID)
	assert.Equal(t, "usr-1", got.UserID)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, "comment rev-1", got.Comment)

	err = s.CreateReview(ctx, MakeReview("rev-2", "book-1", "usr-1", 3, 2*time.Minute))
	assert.ErrorIs(t, err, store.ErrDuplicateReview)

	err = s.CreateReview(ctx, MakeReview("rev-3", "book-missing", "usr-1", 3, 2*time.Minute))
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.CreateReview(ctx, MakeReview("rev-5", "book-1", "usr-ghost", 3, 2*time.Minute))
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	book, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 1, book.ReviewCount, "failed inserts must not change the counter")

	got.Rating = 2
	got.Comment = "changed my mind"
	got.Touch(base.Add(time.Hour))
	require.NoError(t, s.UpdateReview(ctx, got))

	updated, err := s.GetReview(ctx, "rev-1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
	assert.Equal(t, "changed my mind", updated.Comment)
	assert.True(t, base.Add(time.Hour).Equal(updated.UpdatedAt))

	missing := MakeReview("rev-missing", "book-1", "usr-1", 1, 0)
	assert.ErrorIs(t, s.UpdateReview(ctx, missing), store.ErrNotFound)

	require.NoError(t, s.DeleteReview(ctx, "rev-1"))
	_, err = s.GetReview(ctx, "rev-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteReview(ctx, "rev-1"), store.ErrNotFound)

	// The pair is free again once the review is gone.
	require.NoError(t, s.CreateReview(ctx, MakeReview("rev-4", "book-1", "usr-1", 4, 3*time.Minute)))
}

func testReviewCounter(t *testing.T, s store.Store) {
	ctx := context.Background()
	const n, m = 5, 2
	seedUsersAndBook(t, s, n)

	for i := 1; i <= n; i++ {
		r := MakeReview(fmt.Sprintf("rev-%d", i), "book-1", fmt.Sprintf("usr-%d", i), i, time.Duration(i)*time.Minute)
		require.NoError(t, s.CreateReview(ctx, r))
	}
	for i := 1; i <= m; i++ {
		require.NoError(t, s.DeleteReview(ctx, fmt.Sprintf("rev-%d", i)))
	}

	book, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, n-m, book.ReviewCount)

	listed, _, err := s.ListBooks(ctx, store.BookFilter{}, store.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, n-m, listed[0].ReviewCount)

	// Ratings 3, 4, 5 remain.
	avg, err := s.AverageRating(ctx, "book-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 1e-9)
}

func testListReviews(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUsersAndBook(t, s, 3)

	avg, err := s.AverageRating(ctx, "book-1")
	require.NoError(t, err)
	assert.Zero(t, avg)

	require.NoError(t, s.CreateReview(ctx, MakeReview("rev-a", "book-1", "usr-1", 5, time.Minute)))
	require.NoError(t, s.CreateReview(ctx, MakeReview("rev-b", "book-1", "usr-2", 4, 3*time.Minute)))
	require.NoError(t, s.CreateReview(ctx, MakeReview("rev-c", "book-1", "usr-3", 3, 2*time.Minute)))

	page1, total, err := s.ListReviews(ctx, "book-1", store.Page{Number: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "rev-b", page1[0].ID)
	assert.Equal(t, "User 2", page1[0].UserName)
	assert.Equal(t, "rev-c", page1[1].ID)

	page2, _, err := s.ListReviews(ctx, "book-1", store.Page{Number: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "rev-a", page2[0].ID)
	assert.Equal(t, "User 1", page2[0].UserName)

	far, total, err := s.ListReviews(ctx, "book-1", store.NewPage(math.MaxInt, store.MaxPageLimit, 5))
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, far)

	none, total, err := s.ListReviews(ctx, "book-other", store.Page{Number: 1, Limit: 5})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)

	avg, err = s.AverageRating(ctx, "book-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 1e-9)
}
