package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store/badger"
)

func badgerArgs(t *testing.T) ([]string, string) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "")
	dir := t.TempDir()
	args := []string{
		"--store", "badger",
		"--data-path", dir,
		"--env-file", filepath.Join(dir, "missing.env"),
	}
	return args, filepath.Join(dir, "badger")
}

func TestRun_ClosesStore(t *testing.T) {
	args, dbPath := badgerArgs(t)

	st, err := badger.Open(dbPath, nil)
	require.NoError(t, err)
	b, err := domain.NewBook("Dune", "Frank Herbert", "Science Fiction", 1965, time.Now())
	require.NoError(t, err)
	require.NoError(t, st.CreateBook(context.Background(), b))
	require.NoError(t, st.Close())

	var out bytes.Buffer
	assert.Equal(t, 0, run(args, &out))
	assert.Contains(t, out.String(), "Driver: badger")
	assert.Contains(t, out.String(), "Dune")
	assert.Contains(t, out.String(), "Books:   1")

	// Badger holds a directory lock until closed.
	reopened, err := badger.Open(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())
}

func TestRun_InvalidConfig(t *testing.T) {
	args, _ := badgerArgs(t)
	args = append(args, "--log-level", "loud")

	var out bytes.Buffer
	assert.Equal(t, 1, run(args, &out))
	assert.Empty(t, out.String())
}
