package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySettings(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySettings()

	_, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	enabled, err := s.AutoSyncEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled, "auto-sync defaults to enabled")

	at := time.Date(2024, 3, 9, 14, 7, 42, 0, time.UTC)
	require.NoError(t, s.SetLastSync(ctx, at))
	require.NoError(t, s.SetAutoSyncEnabled(ctx, false))

	got, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 9, 14, 7, 0, 0, time.UTC), got)

	require.NoError(t, s.ClearData(ctx))
	_, ok, _ = s.LastSync(ctx)
	assert.False(t, ok)
	enabled, _ = s.AutoSyncEnabled(ctx)
	assert.False(t, enabled, "clearing data keeps the auto-sync setting")
}
