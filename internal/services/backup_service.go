package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloudbudget/internal/log"
	"cloudbudget/internal/sheets"
	"cloudbudget/internal/store"
	"cloudbudget/internal/storage"
)

var ErrBackupDisabled = errors.New("no backup backend configured")

// SyncSettings is the persisted state around backups.
type SyncSettings interface {
	LastSync(ctx context.Context) (time.Time, bool, error)
	SetLastSync(ctx context.Context, t time.Time) error
	AutoSyncEnabled(ctx context.Context) (bool, error)
	SetAutoSyncEnabled(ctx context.Context, enabled bool) error
}

// BackupService moves the whole state between the local store and the
// remote backup.
type BackupService struct {
	store    *store.Store
	backup   sheets.Backup
	settings SyncSettings
	now      func() time.Time
}

// NewBackupService creates the service. backup may be nil, in which case
// the cloud operations return ErrBackupDisabled and exports still work.
func NewBackupService(st *store.Store, backup sheets.Backup, settings SyncSettings) *BackupService {
	return &BackupService{
		store:    st,
		backup:   backup,
		settings: settings,
		now:      time.Now,
	}
}

// SyncToCloud writes the current snapshot to the backup and records the
// sync time.
func (s *BackupService) SyncToCloud(ctx context.Context) (time.Time, error) {
	if s.backup == nil {
		return time.Time{}, ErrBackupDisabled
	}

	snap := s.store.Snapshot()
	at := s.now()
	start := time.Now()

	if err := s.backup.Save(ctx, sheets.BackupData{Data: snap.Data(), ExportDate: at}); err != nil {
		slog.ErrorContext(ctx, "Backup failed",
			log.FieldComponent, log.ComponentBackup,
			log.FieldOperation, log.OpSync,
			log.FieldVersion, snap.Version(),
			log.FieldError, err)
		return time.Time{}, fmt.Errorf("save backup: %w", err)
	}
	if err := s.settings.SetLastSync(ctx, at); err != nil {
		return time.Time{}, fmt.Errorf("record last sync: %w", err)
	}

	slog.InfoContext(ctx, "Backup written",
		log.FieldComponent, log.ComponentBackup,
		log.FieldOperation, log.OpSync,
		log.FieldVersion, snap.Version(),
		log.FieldDuration, time.Since(start).Milliseconds())
	return at, nil
}

// LoadFromCloud replaces the local state with the remote backup.
func (s *BackupService) LoadFromCloud(ctx context.Context) (store.Snapshot, error) {
	if s.backup == nil {
		return store.Snapshot{}, ErrBackupDisabled
	}

	b, err := s.backup.Load(ctx)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("load backup: %w", err)
	}

	snap, err := s.store.Replace(ctx, b.Data)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("replace local state: %w", err)
	}

	slog.InfoContext(ctx, "Restored from backup",
		log.FieldComponent, log.ComponentBackup,
		log.FieldOperation, log.OpRestore,
		"export_date", b.ExportDate,
		log.FieldCount, len(b.Transactions))
	return snap, nil
}

// LastSync returns the last sync time formatted for display, or "" when
// there has been none.
func (s *BackupService) LastSync(ctx context.Context) (string, error) {
	t, ok, err := s.settings.LastSync(ctx)
	if err != nil || !ok {
		return "", err
	}
	return t.Format(storage.LastSyncLayout), nil
}

type jsonBackup struct {
	Version    string    `json:"version"`
	ExportDate time.Time `json:"exportDate"`
	store.Data
}

// ExportJSON writes the whole state as an indented JSON document.
func (s *BackupService) ExportJSON(ctx context.Context, w io.Writer) error {
	doc := jsonBackup{
		Version:    sheets.FormatVersion,
		ExportDate: s.now(),
		Data:       s.store.Snapshot().Data(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	slog.DebugContext(ctx, "Exported JSON backup",
		log.FieldComponent, log.ComponentBackup,
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(doc.Transactions))
	return nil
}

// ExportCSV writes the transactions, newest first, as CSV.
func (s *BackupService) ExportCSV(ctx context.Context, w io.Writer) error {
	txs := s.store.Snapshot().Search(store.SearchFilters{})
	if err := writeTransactionsCSV(w, txs); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Exported CSV",
		log.FieldComponent, log.ComponentBackup,
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(txs))
	return nil
}
