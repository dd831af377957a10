// Package activity keeps the audit log of user actions: an append-only,
// bounded list of the most recent entries, newest first.
package activity

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/testmo/internal/clock"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

// Repository persists the whole activity list.
type Repository interface {
	LoadActivity(ctx context.Context) ([]domain.ActivityEntry, error)
	SaveActivity(ctx context.Context, entries []domain.ActivityEntry) error
}

// Journal is the in-memory activity log. When it holds more than its limit,
// the oldest entries are evicted. Record persists after every append; save
// failures are logged and never returned.
type Journal struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
	limit   int
	repo    Repository
	clock   clock.Clock
	newID   func() string
	logger  zerolog.Logger
}

// Option configures a Journal.
type Option func(*Journal)

// WithLimit overrides the number of entries kept.
func WithLimit(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.limit = n
		}
	}
}

// WithClock sets the time source for entry timestamps.
func WithClock(c clock.Clock) Option {
	return func(j *Journal) { j.clock = c }
}

// WithIDFunc sets the entry id generator.
func WithIDFunc(f func() string) Option {
	return func(j *Journal) { j.newID = f }
}

// WithLogger sets the logger used to report save failures.
func WithLogger(l zerolog.Logger) Option {
	return func(j *Journal) { j.logger = l }
}

// NewJournal creates an empty Journal backed by repo. repo may be nil for a
// purely in-memory journal.
func NewJournal(repo Repository, opts ...Option) *Journal {
	j := &Journal{
		limit:  constants.ActivityLogLimit,
		repo:   repo,
		clock:  clock.RealClock{},
		newID:  uuid.NewString,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Load replaces the in-memory entries with the persisted ones.
func (j *Journal) Load(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	entries, err := j.repo.LoadActivity(ctx)
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = truncate(entries, j.limit)
	return nil
}

// Append adds an entry at the front and evicts the oldest beyond the limit.
// It does not persist.
func (j *Journal) Append(user string, action constants.ActivityAction, target, details string) domain.ActivityEntry {
	entry := domain.ActivityEntry{
		ID:        j.newID(),
		User:      user,
		Action:    action,
		Target:    target,
		Details:   details,
		Timestamp: j.clock.Now(),
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	next := make([]domain.ActivityEntry, 0, min(len(j.entries)+1, j.limit))
	next = append(next, entry)
	next = append(next, j.entries...)
	j.entries = truncate(next, j.limit)
	return entry
}

// Record appends an entry and persists the journal.
func (j *Journal) Record(ctx context.Context, user string, action constants.ActivityAction, target, details string) domain.ActivityEntry {
	entry := j.Append(user, action, target, details)
	j.persist(ctx)
	return entry
}

// Entries returns a copy of the entries, newest first.
func (j *Journal) Entries() []domain.ActivityEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.ActivityEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Len returns the number of entries held.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Journal) persist(ctx context.Context) {
	if j.repo == nil {
		return
	}
	if err := j.repo.SaveActivity(ctx, j.Entries()); err != nil {
		j.logger.Warn().Err(err).Str("key", constants.KeyActivity).Msg("failed to persist activity log")
	}
}

func truncate(entries []domain.ActivityEntry, limit int) []domain.ActivityEntry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
