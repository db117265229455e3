package storage

import (
	"context"
	"sync"
	"time"
)

// MemorySettings keeps the sync settings in process for the memory data
// backend. The last sync time is truncated to LastSyncLayout precision, as
// the SQLite slot store does.
type MemorySettings struct {
	mu       sync.Mutex
	lastSync time.Time
	hasSync  bool
	disabled bool
}

func NewMemorySettings() *MemorySettings { return &MemorySettings{} }

func (m *MemorySettings) LastSync(_ context.Context) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync, m.hasSync, nil
}

func (m *MemorySettings) SetLastSync(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSync, m.hasSync = t.Truncate(time.Minute), true
	return nil
}

func (m *MemorySettings) AutoSyncEnabled(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.disabled, nil
}

func (m *MemorySettings) SetAutoSyncEnabled(_ context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = !enabled
	return nil
}

func (m *MemorySettings) ClearData(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSync, m.hasSync = time.Time{}, false
	return nil
}
