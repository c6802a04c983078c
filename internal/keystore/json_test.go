package keystore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediagate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJSONStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api_keys.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)
	return store, path
}

func TestJSONStore_PutAndGet(t *testing.T) {
	store, _ := newTestJSONStore(t)
	ctx := context.Background()

	record := models.NewAPIKey("ytapi_test", "alice", 5)
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "ytapi_test")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, 5, got.RequestsPerMinute)
	assert.True(t, got.Active)
	assert.Equal(t, int64(0), got.TotalRequests)
	assert.Nil(t, got.LastUsed)
}

func TestJSONStore_Get_NotFound(t *testing.T) {
	store, _ := newTestJSONStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "api_keys.json")

	store, err := NewJSONStore(path)
	require.NoError(t, err)

	require.NoError(t, store.EnsureMaster(ctx, "master-key"))
	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))
	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_b", "bob", 20)))
	require.NoError(t, store.Touch(ctx, "ytapi_a", time.Now()))
	require.NoError(t, store.Close())

	// A fresh store over the same file reproduces the record set, including
	// the usage counters flushed on Close.
	reloaded, err := NewJSONStore(path)
	require.NoError(t, err)

	records, err := reloaded.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	a, err := reloaded.Get(ctx, "ytapi_a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.TotalRequests)
	require.NotNil(t, a.LastUsed)

	master, err := reloaded.Get(ctx, "master-key")
	require.NoError(t, err)
	assert.True(t, master.IsMaster())
	assert.True(t, master.Active)
}

func TestJSONStore_MalformedSnapshotIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api_keys.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	store, err := NewJSONStore(path)
	require.NoError(t, err, "a corrupt snapshot must never be a fatal startup error")

	records, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestJSONStore_Delete(t *testing.T) {
	store, _ := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))
	require.NoError(t, store.Delete(ctx, "ytapi_a"))

	_, err := store.Get(ctx, "ytapi_a")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "ytapi_a"), ErrNotFound)
}

func TestJSONStore_MasterIsProtected(t *testing.T) {
	store, _ := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureMaster(ctx, "master-key"))

	assert.ErrorIs(t, store.Delete(ctx, "master-key"), ErrProtected)

	_, err := store.ToggleActive(ctx, "master-key")
	assert.ErrorIs(t, err, ErrProtected)

	// The record is unchanged after the failed mutations.
	master, err := store.Get(ctx, "master-key")
	require.NoError(t, err)
	assert.True(t, master.Active)
	assert.Equal(t, models.MasterQuotaPerMinute, master.RequestsPerMinute)
}

func TestJSONStore_EnsureMasterIsIdempotent(t *testing.T) {
	store, _ := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureMaster(ctx, "master-key"))
	require.NoError(t, store.EnsureMaster(ctx, "master-key"))

	records, err := store.List(ctx)
	require.NoError(t, err)

	masters := 0
	for _, r := range records {
		if r.IsMaster() {
			masters++
		}
	}
	assert.Equal(t, 1, masters, "exactly one master record")
}

func TestJSONStore_ToggleActive(t *testing.T) {
	store, _ := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))

	active, err := store.ToggleActive(ctx, "ytapi_a")
	require.NoError(t, err)
	assert.False(t, active)

	active, err = store.ToggleActive(ctx, "ytapi_a")
	require.NoError(t, err)
	assert.True(t, active)

	_, err = store.ToggleActive(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONStore_SnapshotWrittenOnMutation(t *testing.T) {
	store, path := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))

	// The snapshot on disk already contains the record, without Close.
	fresh, err := NewJSONStore(path)
	require.NoError(t, err)
	_, err = fresh.Get(ctx, "ytapi_a")
	assert.NoError(t, err)
}

func TestJSONStore_TouchIncrementsMonotonically(t *testing.T) {
	store, _ := newTestJSONStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, models.NewAPIKey("ytapi_a", "alice", 5)))

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Touch(ctx, "ytapi_a", time.Now()))
		got, err := store.Get(ctx, "ytapi_a")
		require.NoError(t, err)
		assert.Equal(t, int64(i), got.TotalRequests)
	}

	assert.ErrorIs(t, store.Touch(ctx, "missing", time.Now()), ErrNotFound)
}
