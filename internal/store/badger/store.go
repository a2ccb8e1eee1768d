// Package badger implements store.Store on the Badger key-value store.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
	"github.com/bookreviewapp/bookreview-server/internal/store"
)

// maxTxnRetries bounds how often an update is replayed after a write conflict.
const maxTxnRetries = 10

var _ store.Store = (*Store)(nil)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	users   *entity[userRecord]
	books   *entity[domain.Book]
	reviews *entity[domain.Review]
}

// Open opens the database at path. An empty path keeps everything in memory.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true
		opts.CompactL0OnClose = true
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := New(db, logger)
	s.logger.Info("Badger database opened successfully", "path", path, "in_memory", path == "")
	return s, nil
}

// New wraps an already open database.
func New(db *badger.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		db:     db,
		logger: logger,
		users: newEntity[userRecord]("user:").
			withIndex("email", func(u *userRecord) []string {
				return []string{domain.EmailKey(u.Email)}
			}),
		books: newEntity[domain.Book]("book:"),
		reviews: newEntity[domain.Review]("review:").
			withIndex("pair", func(r *domain.Review) []string {
				return []string{r.UserID + ":" + r.BookID}
			}).
			withIndex("book", func(r *domain.Review) []string {
				return []string{r.BookID + ":" + r.ID}
			}),
	}
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// Ping reports whether the database is still open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

// update runs fn in a read-write transaction, replaying it when a concurrent
// transaction touched the same keys.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) && attempt < maxTxnRetries {
			s.logger.Debug("retrying conflicting transaction", "attempt", attempt+1)
			continue
		}
		return err
	}
}
