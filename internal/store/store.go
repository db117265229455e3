// Package store holds the canonical collections of the application.
//
// A Store owns the current Snapshot. Every command copies the snapshot,
// applies its change, validates it, hands the result to the Persister and
// only then publishes it. Readers never observe a half-applied command and
// never see a snapshot change under them.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"cloudbudget/internal/log"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("name already in use")
	ErrDuplicateID   = errors.New("id already in use")
	ErrBalanceLocked = errors.New("initial balance cannot change once transactions reference the account")
)

// Store is the aggregate root over accounts, transactions and taxonomy.
type Store struct {
	mu        sync.RWMutex
	snap      Snapshot
	persister Persister
	now       func() time.Time

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for id generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the persisted state and returns a store over it.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	data, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	s := &Store{
		snap:      Snapshot{data: data},
		persister: p,
		now:       time.Now,
		subs:      make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	slog.DebugContext(ctx, "Store opened",
		"accounts", len(data.Accounts),
		"transactions", len(data.Transactions))
	return s, nil
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn to run after every successful command, outside
// the store lock. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// apply runs one command against a copy of the current data.
func (s *Store) apply(ctx context.Context, op string, fn func(*Data) error) (Snapshot, error) {
	s.mu.Lock()
	next := s.snap.data.Clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	if err := s.persister.Save(ctx, next); err != nil {
		s.mu.Unlock()
		slog.ErrorContext(ctx, "Failed to persist store",
			log.NewFields().WithComponent(log.ComponentStore).WithOperation(op).WithError(err).ToSlice()...)
		return Snapshot{}, fmt.Errorf("persist %s: %w", op, err)
	}
	s.snap = Snapshot{version: s.snap.version + 1, data: next}
	snap := s.snap
	s.mu.Unlock()

	slog.DebugContext(ctx, "Store updated",
		log.NewFields().WithComponent(log.ComponentStore).WithOperation(op).WithVersion(snap.version).ToSlice()...)
	s.notify(snap)
	return snap, nil
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// newID returns a millisecond timestamp plus a random offset, bumped until
// it is not in taken.
func (s *Store) newID(taken func(int64) bool) int64 {
	id := s.now().UnixMilli() + rand.Int64N(1000)
	for taken(id) {
		id++
	}
	return id
}
