package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/search"
	"github.com/bookreviewapp/bookreview-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// Index is nil when search is disabled.
type SearchIndexHandle struct {
	Index *search.BookIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Index.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search index disabled, searches use the store")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.NewBookIndex(search.Options{
		DataPath: cfg.App.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// ReindexSearch rebuilds the index from the store. Failures are logged and
// searches fall back to the store.
func ReindexSearch(i do.Injector) {
	handle := do.MustInvoke[*SearchIndexHandle](i)
	if handle.Index == nil {
		return
	}

	books := do.MustInvoke[*service.BookService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := books.Reindex(ctx); err != nil {
		log.Error("Search reindex failed", "error", err)
	}
}
