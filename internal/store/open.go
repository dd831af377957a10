package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/testmo/internal/errors"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backends lists the supported backend names.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendRedis, BackendMemory}
}

// Options select and configure a backend.
type Options struct {
	Backend       string
	Dir           string
	SQLitePath    string
	RedisURL      string
	RedisPrefix   string
	MaxValueBytes int64
	LockTimeout   time.Duration
}

// Open creates the configured backend wrapped in a Store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		kv  KV
		err error
	)
	switch opts.Backend {
	case BackendFile, "":
		kv, err = NewFileKV(opts.Dir, opts.MaxValueBytes, opts.LockTimeout)
	case BackendSQLite:
		kv, err = OpenSQLite(ctx, opts.SQLitePath, opts.MaxValueBytes)
	case BackendRedis:
		kv, err = OpenRedis(ctx, opts.RedisURL, opts.RedisPrefix, opts.MaxValueBytes)
	case BackendMemory:
		kv = NewMemoryKV(opts.MaxValueBytes)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return New(kv), nil
}
