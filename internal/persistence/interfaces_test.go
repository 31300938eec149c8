package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cascade/internal/domain/history"
)

var ref = time.Date(2026, 6, 30, 9, 0, 0, 0, time.UTC)

func TestMemory_KV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	_, err := kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "a-1", []byte("x")))
	require.NoError(t, kv.Set(ctx, "a-2", []byte("y")))
	require.NoError(t, kv.Set(ctx, "b-1", []byte("z")))

	v, err := kv.Get(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), v)

	keys, err := kv.Keys(ctx, "a-")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "a-2"}, keys)

	require.NoError(t, kv.Delete(ctx, "a-1"))
	require.NoError(t, kv.Delete(ctx, "missing"))
	keys, _ = kv.Keys(ctx, "a-")
	assert.Equal(t, []string{"a-2"}, keys)
}

func TestHistoryRepo_MigratePurgesOtherVersions(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Set(ctx, "me-dcs-v3", []byte(`{"2026-06-01":0.9}`)))
	require.NoError(t, kv.Set(ctx, "me-dcs-v2", []byte(`{}`)))
	require.NoError(t, kv.Set(ctx, "other-dcs-v3", []byte(`{}`)))
	require.NoError(t, kv.Set(ctx, "me-dcs-vnext", []byte(`{}`)))

	repo := NewHistoryRepo(kv, 4, "me", 35)
	assert.Equal(t, "me-dcs-v4", repo.Key())

	h, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)

	keys, _ := kv.Keys(ctx, "")
	assert.Equal(t, []string{"me-dcs-vnext", "other-dcs-v3"}, keys)
}

func TestHistoryRepo_SaveLoadRetention(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepo(NewMemory(), 4, "me", 35)

	h := history.History{}
	h.Put(ref, 0.6)
	h.Put(ref.AddDate(0, 0, -10), 0.2)
	h.Put(ref.AddDate(0, 0, -36), 0.9)
	require.NoError(t, repo.Save(ctx, h, ref))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
	_, ok := loaded.Get(ref.AddDate(0, 0, -36))
	assert.False(t, ok)
	v, _ := loaded.Get(ref)
	assert.Equal(t, 0.6, v)

	require.NoError(t, repo.Purge(ctx))
	loaded, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestHistoryRepo_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Set(ctx, "me-dcs-v4", []byte("not json")))

	h, err := NewHistoryRepo(kv, 4, "me", 35).Load(ctx)
	assert.Error(t, err)
	assert.NotNil(t, h)
	assert.Empty(t, h)
}

type failingKV struct{ *Memory }

func (failingKV) Keys(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestHistoryRepo_StorageFailure(t *testing.T) {
	_, err := NewHistoryRepo(failingKV{NewMemory()}, 4, "me", 35).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
