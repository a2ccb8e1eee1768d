package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/store/sqlite"
)

const testSecret = "service-test-secret-0123456789"

type testEnv struct {
	store   *sqlite.Store
	index   *search.BookIndex
	auth    *AuthService
	books   *BookService
	reviews *ReviewService
}

// fixedClock advances by one second on every call so creation order is
// reflected in timestamps.
func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestEnv(t *testing.T, withIndex bool) *testEnv {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var index *search.BookIndex
	if withIndex {
		index, err = search.NewBookIndex(search.Options{})
		require.NoError(t, err)
		t.Cleanup(func() { _ = index.Close() })
	}

	tokens, err := auth.NewTokenService(auth.TokenOptions{Secret: testSecret})
	require.NoError(t, err)

	clock := fixedClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	env := &testEnv{
		store:   st,
		index:   index,
		auth:    NewAuthService(st, tokens, nil),
		books:   NewBookService(st, st, index, nil),
		reviews: NewReviewService(st, nil),
	}
	env.auth.now = clock
	env.books.now = clock
	env.reviews.now = clock
	return env
}
