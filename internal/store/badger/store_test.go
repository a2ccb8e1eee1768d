package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateBook(ctx, storetest.MakeBook("book-1", "Dune", "Frank Herbert", "Sci-Fi", 0)))
	require.NoError(t, s.Close())

	s2, err := Open(dir, nil)
	require.NoError(t, err)
	defer s2.Close()

	b, err := s2.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
}

func TestPing(t *testing.T) {
	s, err := Open("", nil)
	require.NoError(t, err)

	assert.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestCreateReview_ConcurrentCounter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Each conflict implies another writer committed, so n-1 retries always suffice.
	const n = 8
	for i := range n {
		u := storetest.MakeUser(fmt.Sprintf("usr-%d", i), "U", fmt.Sprintf("u%d@example.com", i))
		require.NoError(t, s.CreateUser(ctx, u))
	}
	require.NoError(t, s.CreateBook(ctx, storetest.MakeBook("book-1", "Dune", "Frank Herbert", "Sci-Fi", 0)))

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := storetest.MakeReview(fmt.Sprintf("rev-%d", i), "book-1", fmt.Sprintf("usr-%d", i), 4, time.Duration(i)*time.Second)
			errs <- s.CreateReview(ctx, r)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	b, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, n, b.ReviewCount)
}

func TestCreateReview_MissingUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateBook(ctx, storetest.MakeBook("book-1", "Dune", "Frank Herbert", "Sci-Fi", 0)))

	err := s.CreateReview(ctx, storetest.MakeReview("rev-1", "book-1", "usr-ghost", 3, 0))
	assert.ErrorIs(t, err, store.ErrUserNotFound)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetBook(ctx, "book-1")
	assert.ErrorIs(t, err, context.Canceled)
}
