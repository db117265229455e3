package backend

import (
	"context"
	"fmt"
	"log/slog"

	"cloudbudget/internal/sheets"
	gsheet "cloudbudget/internal/sheets/google"
	"cloudbudget/internal/sheets/memory"
	"cloudbudget/internal/storage"
	"cloudbudget/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Persister: repo,
		Settings:  repo,
		Clearer:   repo,
		Cleanup:   repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	seed, err := memory.LoadSeed(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory seed: %w", err)
	}
	settings := storage.NewMemorySettings()

	f.logger.Info("Initialized memory backend",
		"data_dir", dataDir,
		"accounts", len(seed.Accounts),
		"categories", len(seed.Categories))

	return &BackendResult{
		Persister: store.NewMemoryPersister(seed),
		Settings:  settings,
		Clearer:   settings,
	}, nil
}

func (f *DefaultFactory) CreateBackup(ctx context.Context, config Config) (sheets.Backup, error) {
	switch config.Backup {
	case NoBackup, "":
		f.logger.Info("Remote backup disabled")
		return nil, nil
	case MemoryBackup:
		f.logger.Info("Initialized in-memory backup")
		return memory.NewBackup(), nil
	case SheetsBackup:
		cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, gsheet.Credentials{
			JSON: config.GoogleServiceAccountJSON,
			File: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backup", "spreadsheet_id", config.GoogleSpreadsheetID)
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported backup type: %s", config.Backup)
	}
}
