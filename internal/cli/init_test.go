package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbudget/internal/config"
	"cloudbudget/internal/log"
)

func TestOpenAppMemory(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", BackupBackend: "none", SeedDir: t.TempDir()}

	app, err := OpenApp(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, uint64(0), app.Store.Snapshot().Version())
	assert.NotEmpty(t, app.Store.Snapshot().Currencies(), "missing seed falls back to default currencies")
}

func TestOpenAppSQLite(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", BackupBackend: "none", SQLiteDBPath: filepath.Join(t.TempDir(), "c.db")}

	app, err := OpenApp(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	assert.NoError(t, app.Close())
}

func TestOpenAppRejectsBadBackend(t *testing.T) {
	_, err := OpenApp(context.Background(), &config.Config{DataBackend: "paper"}, slog.Default())
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "bogus", LogFormat: "json"}, log.ComponentCLI)
	assert.Equal(t, log.ComponentCLI, logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
