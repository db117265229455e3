package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cloudbudget/internal/amqp"
	"cloudbudget/internal/log"
	"cloudbudget/internal/store"
)

// AutoSyncConfig controls when store changes trigger a backup.
type AutoSyncConfig struct {
	// Delay is the quiet period after the last change before syncing.
	Delay time.Duration
	// MinInterval is the minimum time between two sync attempts.
	MinInterval time.Duration
}

func DefaultAutoSyncConfig() AutoSyncConfig {
	return AutoSyncConfig{
		Delay:       30 * time.Second,
		MinInterval: 60 * time.Second,
	}
}

// Publisher hands backup requests to the worker.
type Publisher interface {
	PublishBackupRequest(ctx context.Context, req *amqp.BackupRequest) error
}

type stopper interface {
	Stop() bool
}

// AutoSyncer backs up the store after it changes. Changes are debounced by
// Delay; attempts closer than MinInterval to the previous one are pushed
// back by the remainder. At most one sync runs at a time, and a change seen
// during a sync schedules another one afterwards.
type AutoSyncer struct {
	store     *store.Store
	backup    *BackupService
	publisher Publisher
	settings  SyncSettings
	cfg       AutoSyncConfig

	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper

	mu          sync.Mutex
	ctx         context.Context
	timer       stopper
	version     uint64
	lastAttempt time.Time
	inFlight    bool
	pending     bool
	stopped     bool
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewAutoSyncer creates a syncer. When publisher is non-nil, syncing
// publishes a backup request instead of writing the backup in process.
func NewAutoSyncer(st *store.Store, backup *BackupService, publisher Publisher, settings SyncSettings, cfg AutoSyncConfig) *AutoSyncer {
	return &AutoSyncer{
		store:     st,
		backup:    backup,
		publisher: publisher,
		settings:  settings,
		cfg:       cfg,
		ctx:       context.Background(),
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) },
	}
}

// Start subscribes to store changes. ctx is used for the syncs themselves.
func (a *AutoSyncer) Start(ctx context.Context) {
	if last, ok, err := a.settings.LastSync(ctx); err == nil && ok {
		a.mu.Lock()
		a.lastAttempt = last
		a.mu.Unlock()
	}

	unsubscribe := a.store.Subscribe(func(snap store.Snapshot) {
		a.Notify(snap.Version())
	})

	a.mu.Lock()
	a.ctx = ctx
	a.unsubscribe = unsubscribe
	a.mu.Unlock()

	slog.InfoContext(ctx, "Auto-sync started",
		log.FieldComponent, log.ComponentSync,
		"delay", a.cfg.Delay,
		"min_interval", a.cfg.MinInterval,
		"queued", a.publisher != nil)
}

// Notify records a change at version and restarts the debounce timer.
func (a *AutoSyncer) Notify(version uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.version = version
	if a.inFlight {
		a.pending = true
		return
	}
	a.scheduleLocked(a.cfg.Delay)
}

func (a *AutoSyncer) scheduleLocked(d time.Duration) {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = a.afterFunc(d, a.fire)
}

func (a *AutoSyncer) fire() {
	a.mu.Lock()
	a.timer = nil
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.inFlight {
		a.pending = true
		a.mu.Unlock()
		return
	}
	if wait := a.waitLocked(); wait > 0 {
		slog.Debug("Auto-sync deferred by minimum interval",
			log.FieldComponent, log.ComponentSync, "wait", wait)
		a.scheduleLocked(wait)
		a.mu.Unlock()
		return
	}
	a.beginLocked()
	ctx, version := a.ctx, a.version
	a.mu.Unlock()

	a.run(ctx, version)
}

// waitLocked is how long until MinInterval has passed since the last attempt.
func (a *AutoSyncer) waitLocked() time.Duration {
	if a.lastAttempt.IsZero() {
		return 0
	}
	return a.cfg.MinInterval - a.now().Sub(a.lastAttempt)
}

func (a *AutoSyncer) beginLocked() {
	a.inFlight = true
	a.pending = false
	a.lastAttempt = a.now()
	a.wg.Add(1)
}

func (a *AutoSyncer) run(ctx context.Context, version uint64) {
	defer a.wg.Done()

	a.sync(ctx, version)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight = false
	if a.pending && !a.stopped {
		a.pending = false
		a.scheduleLocked(a.cfg.Delay)
	}
}

func (a *AutoSyncer) sync(ctx context.Context, version uint64) {
	enabled, err := a.settings.AutoSyncEnabled(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Reading auto-sync setting failed",
			log.FieldComponent, log.ComponentSync, log.FieldError, err)
		return
	}
	if !enabled {
		slog.DebugContext(ctx, "Auto-sync disabled, skipping",
			log.FieldComponent, log.ComponentSync, log.FieldVersion, version)
		return
	}

	if a.publisher != nil {
		req := amqp.NewBackupRequest(amqp.ReasonAuto, version)
		if err := a.publisher.PublishBackupRequest(ctx, req); err != nil {
			slog.ErrorContext(ctx, "Publishing backup request failed",
				log.FieldComponent, log.ComponentSync,
				log.FieldVersion, version,
				log.FieldError, err)
		}
		return
	}

	if _, err := a.backup.SyncToCloud(ctx); err != nil {
		slog.ErrorContext(ctx, "Auto-sync failed",
			log.FieldComponent, log.ComponentSync,
			log.FieldVersion, version,
			log.FieldError, err)
	}
}

// Flush runs a pending sync now instead of waiting for the debounce timer.
// It still honours MinInterval; a deferred sync stays scheduled. It reports
// whether a sync ran.
func (a *AutoSyncer) Flush(ctx context.Context) bool {
	a.mu.Lock()
	if a.stopped || a.timer == nil || a.inFlight || a.waitLocked() > 0 {
		a.mu.Unlock()
		return false
	}
	a.timer.Stop()
	a.timer = nil
	a.beginLocked()
	version := a.version
	a.mu.Unlock()

	a.run(ctx, version)
	return true
}

// Stop cancels any scheduled sync and waits for a running one to finish.
func (a *AutoSyncer) Stop() {
	a.mu.Lock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	unsubscribe := a.unsubscribe
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	a.wg.Wait()
}
