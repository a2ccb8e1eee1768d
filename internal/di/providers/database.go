package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/store/badger"
	"github.com/bookreviewapp/bookreview-server/internal/store/mongodb"
	"github.com/bookreviewapp/bookreview-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the store backend selected by cfg.
func OpenStore(cfg *config.Config, log *logger.Logger) (store.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		st, err := mongodb.Open(ctx, cfg.Storage.MongoURL, cfg.Storage.MongoDatabase, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Storage.Driver, "database", cfg.Storage.MongoDatabase)
		return st, nil

	case config.DriverBadger, config.DriverSQLite:
		if err := os.MkdirAll(cfg.App.DataPath, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}

		var (
			st  store.Store
			err error
		)
		if cfg.Storage.Driver == config.DriverBadger {
			st, err = badger.Open(cfg.Storage.DatabaseURL, log.Logger)
		} else {
			st, err = sqlite.Open(cfg.Storage.DatabaseURL, log.Logger)
		}
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", cfg.Storage.Driver, "path", cfg.Storage.DatabaseURL)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Storage.Driver)
	}
}
