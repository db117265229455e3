package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbudget/internal/amqp"
	"cloudbudget/internal/store"
)

func newTestSyncer(t *testing.T, f *fixture, publisher Publisher) (*AutoSyncer, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	a := NewAutoSyncer(f.store, f.service, publisher, f.settings, DefaultAutoSyncConfig())
	a.now = f.clock.Now
	a.afterFunc = sched.afterFunc
	a.Start(context.Background())
	t.Cleanup(a.Stop)
	return a, sched
}

func TestAutoSyncDebouncesChanges(t *testing.T) {
	f := newFixture(t, store.Data{})
	_, sched := newTestSyncer(t, f, nil)

	f.addExpense(t, "1")
	f.addExpense(t, "2")
	f.addExpense(t, "3")

	assert.Equal(t, 3, sched.count(), "each change restarts the timer")
	timer := sched.active()
	require.NotNil(t, timer)
	assert.Equal(t, 30*time.Second, timer.d)

	sched.fire(t)
	assert.Equal(t, 1, f.backup.Saves(), "a burst of changes is one sync")

	_, ok, _ := f.settings.LastSync(context.Background())
	assert.True(t, ok)
}

func TestAutoSyncHonoursMinimumInterval(t *testing.T) {
	f := newFixture(t, store.Data{})
	_, sched := newTestSyncer(t, f, nil)

	f.addExpense(t, "1")
	sched.fire(t)
	require.Equal(t, 1, f.backup.Saves())

	f.clock.Advance(10 * time.Second)
	f.addExpense(t, "2")
	f.clock.Advance(30 * time.Second)
	sched.fire(t)

	assert.Equal(t, 1, f.backup.Saves(), "too soon after the previous sync")
	timer := sched.active()
	require.NotNil(t, timer, "sync is rescheduled")
	assert.Equal(t, 20*time.Second, timer.d)

	f.clock.Advance(20 * time.Second)
	sched.fire(t)
	assert.Equal(t, 2, f.backup.Saves())
}

func TestAutoSyncSkipsWhenDisabled(t *testing.T) {
	f := newFixture(t, store.Data{})
	require.NoError(t, f.settings.SetAutoSyncEnabled(context.Background(), false))
	_, sched := newTestSyncer(t, f, nil)

	f.addExpense(t, "1")
	sched.fire(t)

	assert.Equal(t, 0, f.backup.Saves())
}

func TestAutoSyncPublishesWhenQueued(t *testing.T) {
	f := newFixture(t, store.Data{})
	pub := &fakePublisher{}
	_, sched := newTestSyncer(t, f, pub)

	f.addExpense(t, "1")
	f.addExpense(t, "2")
	sched.fire(t)

	reqs := pub.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, amqp.ReasonAuto, reqs[0].Reason)
	assert.Equal(t, f.store.Snapshot().Version(), reqs[0].Version)
	assert.Equal(t, 0, f.backup.Saves(), "the worker writes the backup")
}

func TestAutoSyncChangeDuringSyncSchedulesAnother(t *testing.T) {
	f := newFixture(t, store.Data{})
	f.backup.started = make(chan struct{})
	f.backup.release = make(chan struct{})
	_, sched := newTestSyncer(t, f, nil)

	f.addExpense(t, "1")
	timer := sched.active()
	require.NotNil(t, timer)
	timer.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		timer.f()
	}()
	<-f.backup.started

	before := sched.count()
	f.addExpense(t, "2")
	assert.Equal(t, before, sched.count(), "no timer while a sync is in flight")

	close(f.backup.release)
	<-done

	assert.Equal(t, 1, f.backup.Saves())
	next := sched.active()
	require.NotNil(t, next, "the change seen during the sync is picked up")
	assert.Equal(t, 30*time.Second, next.d)
}

func TestAutoSyncFlush(t *testing.T) {
	f := newFixture(t, store.Data{})
	a, sched := newTestSyncer(t, f, nil)

	assert.False(t, a.Flush(context.Background()), "nothing pending")

	f.addExpense(t, "1")
	assert.True(t, a.Flush(context.Background()))
	assert.Equal(t, 1, f.backup.Saves())
	assert.Nil(t, sched.active())

	f.addExpense(t, "2")
	assert.False(t, a.Flush(context.Background()), "inside the minimum interval")
	assert.NotNil(t, sched.active(), "deferred sync stays scheduled")
}

func TestAutoSyncStop(t *testing.T) {
	f := newFixture(t, store.Data{})
	a, sched := newTestSyncer(t, f, nil)

	f.addExpense(t, "1")
	timer := sched.active()
	require.NotNil(t, timer)

	a.Stop()
	assert.True(t, timer.stopped)

	f.addExpense(t, "2")
	assert.Equal(t, 1, sched.count(), "no scheduling after Stop")

	timer.f()
	assert.Equal(t, 0, f.backup.Saves())
}
