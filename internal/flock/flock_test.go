//go:build unix

package flock_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/flock"
)

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("acquires and releases", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cases.lock")

		l, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, l.Release())
		require.NoError(t, l.Release(), "second release is a no-op")

		l, err = flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		assert.NoError(t, l.Release())
	})

	t.Run("times out while held", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cases.lock")

		held, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		defer func() { _ = held.Release() }()

		_, err = flock.Acquire(context.Background(), path, 120*time.Millisecond)
		require.ErrorIs(t, err, errors.ErrLockTimeout)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "cases.lock")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := flock.Acquire(ctx, path, time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil lock release", func(t *testing.T) {
		t.Parallel()
		var l *flock.Lock
		assert.NoError(t, l.Release())
	})
}
