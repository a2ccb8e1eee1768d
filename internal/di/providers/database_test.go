package providers

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookreviewapp/bookreview-server/internal/config"
	"github.com/bookreviewapp/bookreview-server/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard})
}

func TestOpenStore(t *testing.T) {
	for _, driver := range []string{config.DriverSQLite, config.DriverBadger} {
		t.Run(driver, func(t *testing.T) {
			dataPath := filepath.Join(t.TempDir(), "nested", "data")
			cfg := &config.Config{
				App: config.AppConfig{DataPath: dataPath},
				Storage: config.StorageConfig{
					Driver:      driver,
					DatabaseURL: filepath.Join(dataPath, "store"),
				},
			}

			st, err := OpenStore(cfg, testLogger())
			require.NoError(t, err)
			defer st.Close()

			assert.NoError(t, st.Ping(context.Background()))
		})
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "postgres"}}

	_, err := OpenStore(cfg, testLogger())
	assert.ErrorContains(t, err, "unknown store driver")
}
