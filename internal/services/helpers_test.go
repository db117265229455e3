package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cloudbudget/internal/amqp"
	"cloudbudget/internal/core"
	"cloudbudget/internal/sheets"
	"cloudbudget/internal/sheets/memory"
	"cloudbudget/internal/store"
	"cloudbudget/internal/storage"
)

var t0 = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) afterFunc(d time.Duration, f func()) stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// active returns the only live timer, or nil.
func (s *fakeScheduler) active() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var live *fakeTimer
	for _, t := range s.timers {
		if !t.stopped {
			live = t
		}
	}
	return live
}

// fire runs the live timer as time.AfterFunc would.
func (s *fakeScheduler) fire(t *testing.T) {
	t.Helper()
	timer := s.active()
	require.NotNil(t, timer, "no timer scheduled")
	s.mu.Lock()
	timer.stopped = true
	s.mu.Unlock()
	timer.f()
}

type countingBackup struct {
	*memory.Backup
	mu      sync.Mutex
	saves   int
	started chan struct{}
	release chan struct{}
}

func newCountingBackup() *countingBackup {
	return &countingBackup{Backup: memory.NewBackup()}
}

func (b *countingBackup) Save(ctx context.Context, data sheets.BackupData) error {
	if b.started != nil {
		b.started <- struct{}{}
		<-b.release
	}
	b.mu.Lock()
	b.saves++
	b.mu.Unlock()
	return b.Backup.Save(ctx, data)
}

func (b *countingBackup) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

type fakePublisher struct {
	mu   sync.Mutex
	reqs []*amqp.BackupRequest
}

func (p *fakePublisher) PublishBackupRequest(_ context.Context, req *amqp.BackupRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
	return nil
}

func (p *fakePublisher) requests() []*amqp.BackupRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.BackupRequest(nil), p.reqs...)
}

type fixture struct {
	store    *store.Store
	backup   *countingBackup
	settings *storage.MemorySettings
	service  *BackupService
	clock    *fakeClock
}

func newFixture(t *testing.T, seed store.Data) *fixture {
	t.Helper()
	st, err := store.Open(context.Background(), store.NewMemoryPersister(seed))
	require.NoError(t, err)

	f := &fixture{
		store:    st,
		backup:   newCountingBackup(),
		settings: storage.NewMemorySettings(),
		clock:    &fakeClock{now: t0},
	}
	f.service = NewBackupService(st, f.backup, f.settings)
	f.service.now = f.clock.Now
	return f
}

func (f *fixture) addExpense(t *testing.T, amount string) core.Transaction {
	t.Helper()
	tx, err := f.store.AddTransaction(context.Background(), core.Transaction{
		Type:     core.Expense,
		Amount:   decimal.RequireFromString(amount),
		Category: "Food",
		Date:     core.NewDate(2025, 5, 9),
		Account:  "Wallet",
	})
	require.NoError(t, err)
	return tx
}
