package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cloudbudget/internal/core"
	"cloudbudget/internal/store"

	_ "modernc.org/sqlite"
)

// Slot keys. Every value is a JSON document except the two settings.
const (
	SlotTransactions    = "cloudbudget_transactions"
	SlotAccounts        = "cloudbudget_accounts"
	SlotCategories      = "cloudbudget_categories"
	SlotTags            = "cloudbudget_tags"
	SlotMerchants       = "cloudbudget_merchants"
	SlotCurrencies      = "cloudbudget_currencies"
	SlotLastSync        = "cloudbudget_last_sync"
	SlotAutoSyncEnabled = "cloudbudget_auto_sync_enabled"
)

// LastSyncLayout is how the last successful backup time is recorded.
const LastSyncLayout = "2006/01/02 15:04"

var ErrCorruptSlot = errors.New("corrupt slot")

// dataSlots are removed by ClearData; settings are not.
var dataSlots = []string{
	SlotTransactions, SlotAccounts, SlotCategories,
	SlotTags, SlotMerchants, SlotCurrencies, SlotLastSync,
}

// SQLiteRepository is a key-value slot store in a single SQLite table. It
// implements store.Persister.
type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Persister = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load reads every data slot. Missing slots are empty collections, a
// missing currency slot yields the default currencies.
func (r *SQLiteRepository) Load(ctx context.Context) (store.Data, error) {
	var data store.Data

	if raw, ok, err := r.get(ctx, SlotTransactions); err != nil {
		return store.Data{}, err
	} else if ok {
		if data.Transactions, err = decodeTransactions(raw); err != nil {
			return store.Data{}, fmt.Errorf("%w %s: %v", ErrCorruptSlot, SlotTransactions, err)
		}
	}

	if raw, ok, err := r.get(ctx, SlotAccounts); err != nil {
		return store.Data{}, err
	} else if ok {
		if data.Accounts, err = decodeAccounts(raw); err != nil {
			return store.Data{}, fmt.Errorf("%w %s: %v", ErrCorruptSlot, SlotAccounts, err)
		}
	}

	if err := r.getJSON(ctx, SlotCategories, &data.Categories); err != nil {
		return store.Data{}, err
	}
	if err := r.getJSON(ctx, SlotTags, &data.Tags); err != nil {
		return store.Data{}, err
	}
	if err := r.getJSON(ctx, SlotMerchants, &data.Merchants); err != nil {
		return store.Data{}, err
	}
	if err := r.getJSON(ctx, SlotCurrencies, &data.Currencies); err != nil {
		return store.Data{}, err
	}
	if data.Currencies == nil {
		data.Currencies = core.DefaultCurrencies()
	}

	slog.DebugContext(ctx, "Loaded slots from SQLite",
		"transactions", len(data.Transactions),
		"accounts", len(data.Accounts))
	return data, nil
}

// Save writes every data slot in one SQL transaction.
func (r *SQLiteRepository) Save(ctx context.Context, data store.Data) error {
	docs := map[string]any{
		SlotTransactions: nonNil(data.Transactions),
		SlotAccounts:     nonNil(data.Accounts),
		SlotCategories:   nonNil(data.Categories),
		SlotTags:         nonNil(data.Tags),
		SlotMerchants:    nonNil(data.Merchants),
		SlotCurrencies:   nonNil(data.Currencies),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for key, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if err := put(ctx, tx, key, string(raw)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LastSync returns the time of the last successful backup, false when
// there has been none.
func (r *SQLiteRepository) LastSync(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := r.get(ctx, SlotLastSync)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := time.ParseInLocation(LastSyncLayout, string(raw), time.Local)
	if err != nil {
		slog.WarnContext(ctx, "Ignoring unreadable last sync time", "value", string(raw), "error", err)
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (r *SQLiteRepository) SetLastSync(ctx context.Context, t time.Time) error {
	return put(ctx, r.db, SlotLastSync, t.Format(LastSyncLayout))
}

// AutoSyncEnabled defaults to true when never set.
func (r *SQLiteRepository) AutoSyncEnabled(ctx context.Context) (bool, error) {
	raw, ok, err := r.get(ctx, SlotAutoSyncEnabled)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	enabled, err := strconv.ParseBool(string(raw))
	if err != nil {
		return true, nil
	}
	return enabled, nil
}

func (r *SQLiteRepository) SetAutoSyncEnabled(ctx context.Context, enabled bool) error {
	return put(ctx, r.db, SlotAutoSyncEnabled, strconv.FormatBool(enabled))
}

// ClearData removes all records and the last sync time. The auto-sync
// setting is kept.
func (r *SQLiteRepository) ClearData(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, key := range dataSlots {
		if _, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete slot %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	slog.InfoContext(ctx, "Cleared local data")
	return nil
}

func (r *SQLiteRepository) get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (r *SQLiteRepository) getJSON(ctx context.Context, key string, v any) error {
	raw, ok, err := r.get(ctx, key)
	if err != nil || !ok {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w %s: %v", ErrCorruptSlot, key, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func put(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", key, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
