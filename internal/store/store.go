package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
)

// Store is the typed view of a KV. Missing keys load as zero values.
type Store struct {
	kv KV
}

// New wraps kv.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// KV returns the underlying backend.
func (s *Store) KV() KV { return s.kv }

// Close closes the backend.
func (s *Store) Close() error { return s.kv.Close() }

// LoadCases returns the stored case collection.
func (s *Store) LoadCases(ctx context.Context) ([]domain.TestCase, error) {
	var cases []domain.TestCase
	if err := s.load(ctx, constants.KeyCases, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// SaveCases replaces the stored case collection.
func (s *Store) SaveCases(ctx context.Context, cases []domain.TestCase) error {
	if cases == nil {
		cases = []domain.TestCase{}
	}
	return s.save(ctx, constants.KeyCases, cases)
}

// LoadUsers returns the user directory.
func (s *Store) LoadUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.load(ctx, constants.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUsers replaces the user directory.
func (s *Store) SaveUsers(ctx context.Context, users []domain.User) error {
	return s.save(ctx, constants.KeyUsers, users)
}

// LoadSettings returns the project settings.
func (s *Store) LoadSettings(ctx context.Context) (domain.ProjectSettings, error) {
	var p domain.ProjectSettings
	err := s.load(ctx, constants.KeySettings, &p)
	return p, err
}

// SaveSettings replaces the project settings.
func (s *Store) SaveSettings(ctx context.Context, p domain.ProjectSettings) error {
	return s.save(ctx, constants.KeySettings, p)
}

// LoadActivity returns the activity log, newest first.
func (s *Store) LoadActivity(ctx context.Context) ([]domain.ActivityEntry, error) {
	var entries []domain.ActivityEntry
	if err := s.load(ctx, constants.KeyActivity, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveActivity replaces the activity log.
func (s *Store) SaveActivity(ctx context.Context, entries []domain.ActivityEntry) error {
	return s.save(ctx, constants.KeyActivity, entries)
}

// LoadSession returns the persisted session, zero when nobody is logged in.
func (s *Store) LoadSession(ctx context.Context) (domain.Session, error) {
	var sess domain.Session
	err := s.load(ctx, constants.KeySession, &sess)
	return sess, err
}

// SaveSession persists the session.
func (s *Store) SaveSession(ctx context.Context, sess domain.Session) error {
	return s.save(ctx, constants.KeySession, sess)
}

func (s *Store) load(ctx context.Context, key string, v any) error {
	data, err := s.kv.Get(ctx, key)
	if stderrors.Is(err, errors.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.kv.Put(ctx, key, data)
}
