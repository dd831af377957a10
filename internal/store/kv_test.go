package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/errors"
)

const testQuota = 64

func backends(t *testing.T) map[string]KV {
	t.Helper()
	ctx := context.Background()

	fileKV, err := NewFileKV(filepath.Join(t.TempDir(), "data"), testQuota, time.Second)
	require.NoError(t, err)

	sqliteKV, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "testmo.db"), testQuota)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	redisKV, err := OpenRedis(ctx, "redis://"+mr.Addr()+"/0", "testmo:", testQuota)
	require.NoError(t, err)

	kvs := map[string]KV{
		BackendMemory: NewMemoryKV(testQuota),
		BackendFile:   fileKV,
		BackendSQLite: sqliteKV,
		BackendRedis:  redisKV,
	}
	t.Cleanup(func() {
		for _, kv := range kvs {
			_ = kv.Close()
		}
	})
	return kvs
}

func TestKV_Contract(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "testmo_cases_v1")
			require.ErrorIs(t, err, errors.ErrKeyNotFound)

			require.NoError(t, kv.Put(ctx, "testmo_cases_v1", []byte(`[1]`)))
			require.NoError(t, kv.Put(ctx, "testmo_cases_v1", []byte(`[1,2]`)))

			got, err := kv.Get(ctx, "testmo_cases_v1")
			require.NoError(t, err)
			assert.JSONEq(t, `[1,2]`, string(got))

			err = kv.Put(ctx, "testmo_cases_v1", make([]byte, testQuota+1))
			require.ErrorIs(t, err, errors.ErrQuotaExceeded)
			got, err = kv.Get(ctx, "testmo_cases_v1")
			require.NoError(t, err)
			assert.JSONEq(t, `[1,2]`, string(got), "rejected write keeps the old value")

			require.NoError(t, kv.Delete(ctx, "testmo_cases_v1"))
			require.NoError(t, kv.Delete(ctx, "testmo_cases_v1"))
			_, err = kv.Get(ctx, "testmo_cases_v1")
			require.ErrorIs(t, err, errors.ErrKeyNotFound)
		})
	}
}

func TestFileKV_RejectsUnsafeKeys(t *testing.T) {
	kv, err := NewFileKV(t.TempDir(), 0, time.Second)
	require.NoError(t, err)

	err = kv.Put(context.Background(), "../escape", []byte("x"))
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestFileKV_WriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir, 0, time.Second)
	require.NoError(t, err)
	require.NoError(t, kv.Put(context.Background(), "k", []byte("v")))

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, s.KV())

	_, err = Open(ctx, Options{Backend: "etcd"})
	require.ErrorIs(t, err, errors.ErrUnknownBackend)

	_, err = Open(ctx, Options{Backend: BackendRedis, RedisURL: "not a url"})
	require.Error(t, err)
}
