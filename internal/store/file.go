package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/flock"
)

const (
	fileExtension = ".json"
	filePerm      = 0o600
	dirPerm       = 0o750
)

// validKey restricts keys to names that are safe as file names.
var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileKV stores each key as <dir>/<key>.json. Writes take an exclusive lock
// on <key>.json.lock and replace the file atomically.
type FileKV struct {
	dir         string
	maxBytes    int64
	lockTimeout time.Duration
}

var _ KV = (*FileKV)(nil)

// NewFileKV creates the data directory if needed.
func NewFileKV(dir string, maxValueBytes int64, lockTimeout time.Duration) (*FileKV, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage dir %w", errors.ErrEmptyValue)
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if lockTimeout <= 0 {
		lockTimeout = constants.LockTimeout
	}
	return &FileKV{dir: dir, maxBytes: maxValueBytes, lockTimeout: lockTimeout}, nil
}

// Dir returns the data directory.
func (s *FileKV) Dir() string { return s.dir }

// Get implements KV.
func (s *FileKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //#nosec G304 -- path is built from a validated key
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Put implements KV.
func (s *FileKV) Put(ctx context.Context, key string, value []byte) error {
	if err := checkQuota(key, value, s.maxBytes); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	lock, err := flock.Acquire(ctx, path+".lock", s.lockTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	return atomicWrite(path, value)
}

// Delete implements KV.
func (s *FileKV) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	lock, err := flock.Acquire(ctx, path+".lock", s.lockTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close implements KV.
func (s *FileKV) Close() error { return nil }

func (s *FileKV) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("%w: invalid storage key %q", errors.ErrInvalidArgument, key)
	}
	return filepath.Join(s.dir, key+fileExtension), nil
}

// atomicWrite writes data to a temp file, syncs it and renames it over path.
func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm) //#nosec G304 -- path is built from a validated key
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
