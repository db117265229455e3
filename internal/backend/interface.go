package backend

import (
	"context"

	"cloudbudget/internal/services"
	"cloudbudget/internal/sheets"
	"cloudbudget/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// DataClearer wipes locally persisted records, keeping settings.
type DataClearer interface {
	ClearData(ctx context.Context) error
}

// BackendResult is the local persistence a store is opened over.
type BackendResult struct {
	Persister store.Persister
	Settings  services.SyncSettings
	Clearer   DataClearer
	Cleanup   CleanupFunc
}

// Factory creates the local backend and the remote backup target.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateBackup returns nil when backups are disabled.
	CreateBackup(ctx context.Context, config Config) (sheets.Backup, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type   BackendType
	Backup BackupType

	// SQLite specific
	SQLiteDBPath string

	// Memory backend seed directory
	DataDirectory string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType selects where local state is persisted.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// BackupType selects the remote backup target.
type BackupType string

const (
	NoBackup     BackupType = "none"
	SheetsBackup BackupType = "sheets"
	MemoryBackup BackupType = "memory"
)

func (bt BackupType) String() string {
	return string(bt)
}

func (bt BackupType) IsValid() bool {
	switch bt {
	case NoBackup, SheetsBackup, MemoryBackup:
		return true
	default:
		return false
	}
}
