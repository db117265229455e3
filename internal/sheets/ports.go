package sheets

import (
	"context"
	"errors"
	"time"

	"cloudbudget/internal/store"
)

// FormatVersion is written to the metadata of every backup.
const FormatVersion = "2.0.0"

var ErrNoBackup = errors.New("no backup found")

// BackupData is one complete backup.
type BackupData struct {
	store.Data
	ExportDate time.Time `json:"exportDate"`
}

// Ports for outbound adapters.
type (
	BackupWriter interface {
		// Save replaces the remote backup with b.
		Save(ctx context.Context, b BackupData) error
	}

	BackupReader interface {
		// Load returns the remote backup, ErrNoBackup when there is none.
		Load(ctx context.Context) (BackupData, error)
	}

	Backup interface {
		BackupWriter
		BackupReader
	}
)
