package worker

import (
	"context"
	"fmt"
	"time"

	"cloudbudget/internal/amqp"
	"cloudbudget/internal/log"
	"cloudbudget/internal/services"
	"cloudbudget/internal/sheets"
	"cloudbudget/internal/store"
)

// BackupWorker writes backups on request. It reads the persisted state at
// handling time, so it always backs up the latest data regardless of the
// version the request was raised for.
type BackupWorker struct {
	persister store.Persister
	backup    sheets.BackupWriter
	settings  services.SyncSettings
	now       func() time.Time
}

func NewBackupWorker(persister store.Persister, backup sheets.BackupWriter, settings services.SyncSettings) *BackupWorker {
	return &BackupWorker{
		persister: persister,
		backup:    backup,
		settings:  settings,
		now:       time.Now,
	}
}

// HandleBackupRequest processes a single backup request from AMQP. Requests
// raised before the last recorded backup are already covered and skipped.
func (w *BackupWorker) HandleBackupRequest(ctx context.Context, msg *amqp.BackupRequest) error {
	logger := log.FromContext(ctx)
	logger.InfoContext(ctx, "Processing backup request",
		log.FieldRequestID, msg.ID,
		"reason", msg.Reason,
		log.FieldVersion, msg.Version)

	if last, ok, err := w.settings.LastSync(ctx); err != nil {
		return fmt.Errorf("read last sync: %w", err)
	} else if ok && last.After(msg.RequestedAt) {
		logger.InfoContext(ctx, "Backup request already covered, skipping",
			log.FieldRequestID, msg.ID,
			"last_sync", last)
		return nil
	}

	return w.Backup(ctx)
}

// Backup writes the persisted state to the backup now.
func (w *BackupWorker) Backup(ctx context.Context) error {
	start := time.Now()

	data, err := w.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load local state: %w", err)
	}

	at := w.now()
	if err := w.backup.Save(ctx, sheets.BackupData{Data: data, ExportDate: at}); err != nil {
		return fmt.Errorf("save backup: %w", err)
	}
	if err := w.settings.SetLastSync(ctx, at); err != nil {
		return fmt.Errorf("record last sync: %w", err)
	}

	log.FromContext(ctx).InfoContext(ctx, "Backup written",
		log.FieldCount, len(data.Transactions),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
