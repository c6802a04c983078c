package keystore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"mediagate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_PutAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	record := models.NewAPIKey("ytapi_test", "alice", 5)
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "ytapi_test")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, 5, got.RequestsPerMinute)
	assert.True(t, got.Active)
	assert.Nil(t, got.LastUsed)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_PutIsUpsert(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	record := models.NewAPIKey("ytapi_test", "alice", 5)
	require.NoError(t, store.Put(ctx, record))

	record.RequestsPerMinute = 50
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "ytapi_test")
	require.NoError(t, err)
	assert.Equal(t, 50, got.RequestsPerMinute)
}

func TestSQLiteStore_DeleteAndToggle(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))

	active, err := store.ToggleActive(ctx, "ytapi_a")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, store.Delete(ctx, "ytapi_a"))
	assert.ErrorIs(t, store.Delete(ctx, "ytapi_a"), ErrNotFound)
}

func TestSQLiteStore_MasterProtection(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureMaster(ctx, "master-key"))
	require.NoError(t, store.EnsureMaster(ctx, "master-key"))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	assert.ErrorIs(t, store.Delete(ctx, "master-key"), ErrProtected)
	_, err = store.ToggleActive(ctx, "master-key")
	assert.ErrorIs(t, err, ErrProtected)
}

func TestSQLiteStore_Touch(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, "ytapi_a", at))
	require.NoError(t, store.Touch(ctx, "ytapi_a", at.Add(time.Second)))

	got, err := store.Get(ctx, "ytapi_a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalRequests)
	require.NotNil(t, got.LastUsed)
	assert.Equal(t, "2026-08-01T12:00:01Z", *got.LastUsed)

	assert.ErrorIs(t, store.Touch(ctx, "missing", at), ErrNotFound)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "keys.db")

	store, err := NewSQLiteStore(dsn)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dsn)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "ytapi_a")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
}
