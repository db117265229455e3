package store

import (
	"context"
	"sync"
)

// Persister is the durable side of the store. Save receives the complete
// next state and must either store all of it or fail.
type Persister interface {
	Load(ctx context.Context) (Data, error)
	Save(ctx context.Context, data Data) error
}

// MemoryPersister keeps data in process memory.
type MemoryPersister struct {
	mu      sync.Mutex
	data    Data
	saveErr error
	saves   int
}

func NewMemoryPersister(seed Data) *MemoryPersister {
	return &MemoryPersister{data: seed.Clone()}
}

func (m *MemoryPersister) Load(_ context.Context) (Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.Clone(), nil
}

func (m *MemoryPersister) Save(_ context.Context, data Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = data.Clone()
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailWith makes every following Save return err; nil restores normal
// behaviour.
func (m *MemoryPersister) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
