// Package store persists the application state as whole-value blobs in a
// key-value backend. Every value is one JSON document: the full case list,
// the user list, the project settings, the activity log and the session.
package store

import (
	"context"
	"fmt"

	"github.com/mrz1836/testmo/internal/errors"
)

// KV is a key-value blob store. Get returns ErrKeyNotFound for missing keys.
// Put may return ErrQuotaExceeded when the value exceeds the backend limit.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// checkQuota rejects values above limit. A non-positive limit disables the check.
func checkQuota(key string, value []byte, limit int64) error {
	if limit > 0 && int64(len(value)) > limit {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", errors.ErrQuotaExceeded, key, len(value), limit)
	}
	return nil
}
