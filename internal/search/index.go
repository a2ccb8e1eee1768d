// Package search maintains a Bleve index over book titles and authors for
// case-insensitive substring search.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/bookreviewapp/bookreview-server/internal/domain"
)

// mappingVersion is bumped whenever the mapping changes; a mismatch on open
// discards the on-disk index so it is rebuilt from the store.
const mappingVersion = "1"

const batchSize = 500

// BookIndex wraps a Bleve index of books. All methods are safe for concurrent use.
type BookIndex struct {
	index  bleve.Index
	path   string // empty for in-memory indexes
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	DataPath string // directory holding search.bleve; in-memory when empty
	Logger   *slog.Logger
}

// NewBookIndex opens the index under DataPath, creating it when missing or
// when its mapping version is stale.
func NewBookIndex(opts Options) (*BookIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &BookIndex{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		existing, readErr := os.ReadFile(versionPath) //#nosec G304 -- under data path
		if readErr == nil && string(existing) == mappingVersion {
			index, err = bleve.Open(indexPath)
			if err != nil {
				logger.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		} else {
			logger.Info("search index mapping changed, recreating", "new_version", mappingVersion)
		}
		if index == nil {
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, fmt.Errorf("remove old index: %w", err)
			}
		}
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o600); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath)
	}

	return &BookIndex{index: index, path: indexPath, logger: logger}, nil
}

// Close releases the index.
func (s *BookIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexBook adds or replaces one book.
func (s *BookIndex) IndexBook(b *domain.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(b.ID, bookDocument(b))
}

// DeleteBook removes a book from the index.
func (s *BookIndex) DeleteBook(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the number of indexed books.
func (s *BookIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Reindex replaces the index contents with books.
func (s *BookIndex) Reindex(books []*domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh, err := s.recreate()
	if err != nil {
		return err
	}
	s.index = fresh

	for i := 0; i < len(books); i += batchSize {
		end := min(i+batchSize, len(books))

		batch := s.index.NewBatch()
		for _, b := range books[i:end] {
			if err := batch.Index(b.ID, bookDocument(b)); err != nil {
				return fmt.Errorf("batch index %s: %w", b.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	s.logger.Info("search index rebuilt", "books", len(books))
	return nil
}

// recreate closes the current index and returns an empty one. Caller holds mu.
func (s *BookIndex) recreate() (bleve.Index, error) {
	if err := s.index.Close(); err != nil {
		return nil, fmt.Errorf("close index: %w", err)
	}
	if s.path == "" {
		return bleve.NewMemOnly(buildIndexMapping())
	}
	if err := os.RemoveAll(s.path); err != nil {
		return nil, fmt.Errorf("remove index: %w", err)
	}
	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return index, nil
}
