package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbudget/internal/config"
	"cloudbudget/internal/core"
	"cloudbudget/internal/store"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", SeedDir: "seed"})
	require.NoError(t, err)
	assert.Equal(t, MemoryBackend, cfg.Type)
	assert.Equal(t, NoBackup, cfg.Backup)
	assert.Equal(t, "seed", cfg.DataDirectory)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "memory", BackupBackend: "sheets"})
	assert.Error(t, err, "sheets backup needs a spreadsheet id")

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestCreateMemoryBackendUsesSeed(t *testing.T) {
	dir := t.TempDir()
	seed := `
accounts:
  - name: Wallet
    type: cash
    balance: "250"
categories:
  - name: Food
    type: expense
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed.yaml"), []byte(seed), 0o644))

	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	require.NoError(t, err)
	assert.Nil(t, res.Cleanup)

	st, err := store.Open(context.Background(), res.Persister)
	require.NoError(t, err)
	acc, ok := st.Snapshot().Account("Wallet")
	require.True(t, ok)
	assert.Equal(t, "250", acc.InitialBalance.String())
	assert.Equal(t, core.Cash, acc.Type)
}

func TestCreateSQLiteBackend(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "db", "cloudbudget.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Cleanup)
	defer res.Cleanup()

	enabled, err := res.Settings.AutoSyncEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestCreateBackup(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	b, err := f.CreateBackup(ctx, Config{Backup: NoBackup})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = f.CreateBackup(ctx, Config{Backup: MemoryBackup})
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = f.CreateBackup(ctx, Config{Backup: "ftp"})
	assert.Error(t, err)
}
