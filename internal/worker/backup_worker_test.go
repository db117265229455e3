package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbudget/internal/amqp"
	"cloudbudget/internal/core"
	"cloudbudget/internal/sheets"
	"cloudbudget/internal/sheets/memory"
	"cloudbudget/internal/storage"
	"cloudbudget/internal/store"
)

var now = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

func newWorker(t *testing.T, data store.Data) (*BackupWorker, *memory.Backup, *storage.MemorySettings, *store.MemoryPersister) {
	t.Helper()
	p := store.NewMemoryPersister(data)
	b := memory.NewBackup()
	s := storage.NewMemorySettings()
	w := NewBackupWorker(p, b, s)
	w.now = func() time.Time { return now }
	return w, b, s, p
}

func TestHandleBackupRequestWritesLatestState(t *testing.T) {
	ctx := context.Background()
	w, b, s, p := newWorker(t, store.Data{})

	// The state changes after the request was raised; the worker backs up
	// what is persisted when it runs.
	require.NoError(t, p.Save(ctx, store.Data{
		Transactions: []core.Transaction{{ID: 1, Type: core.Income, Amount: decimal.NewFromInt(5), Date: core.NewDate(2025, 6, 1), Account: "Bank"}},
	}))

	req := &amqp.BackupRequest{ID: "5f1c1a4e-8d39-4c8f-9a57-0f7a1d0b6a11", Reason: amqp.ReasonAuto, Version: 1, RequestedAt: now.Add(-time.Hour)}
	require.NoError(t, w.HandleBackupRequest(ctx, req))

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 1)
	assert.Equal(t, now, got.ExportDate)

	last, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, now, last)
}

func TestHandleBackupRequestSkipsCoveredRequests(t *testing.T) {
	ctx := context.Background()
	w, b, s, _ := newWorker(t, store.Data{})
	require.NoError(t, s.SetLastSync(ctx, now))

	req := &amqp.BackupRequest{ID: "5f1c1a4e-8d39-4c8f-9a57-0f7a1d0b6a11", Reason: amqp.ReasonAuto, RequestedAt: now.Add(-time.Minute)}
	require.NoError(t, w.HandleBackupRequest(ctx, req))

	_, err := b.Load(ctx)
	assert.ErrorIs(t, err, sheets.ErrNoBackup, "covered request must not write")
}

type failingBackup struct{}

func (failingBackup) Save(context.Context, sheets.BackupData) error { return errors.New("quota exceeded") }

func TestBackupFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemorySettings()
	w := NewBackupWorker(store.NewMemoryPersister(store.Data{}), failingBackup{}, s)

	err := w.Backup(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, ok, _ := s.LastSync(ctx)
	assert.False(t, ok, "failed backup must not record a sync")
}
