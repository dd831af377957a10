package activity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/clock"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

type memRepo struct {
	entries []domain.ActivityEntry
	saves   int
	saveErr error
}

func (m *memRepo) LoadActivity(context.Context) ([]domain.ActivityEntry, error) {
	return m.entries, nil
}

func (m *memRepo) SaveActivity(_ context.Context, entries []domain.ActivityEntry) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = entries
	return nil
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("act-%d", n)
	}
}

func TestJournal_AppendNewestFirst(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	j := NewJournal(nil, WithClock(clock.NewStepping(start, time.Second)), WithIDFunc(seqIDs()))

	j.Append("alice", constants.ActionCreate, "TC-1", "")
	j.Append("bob", constants.ActionDelete, "TC-2", "")

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "act-2", entries[0].ID)
	assert.Equal(t, "bob", entries[0].User)
	assert.Equal(t, constants.ActionDelete, entries[0].Action)
	assert.Equal(t, start.Add(time.Second), entries[0].Timestamp)
	assert.Equal(t, "act-1", entries[1].ID)
}

func TestJournal_EvictsOldestBeyondLimit(t *testing.T) {
	j := NewJournal(nil, WithIDFunc(seqIDs()))

	for i := 0; i < constants.ActivityLogLimit+7; i++ {
		j.Append("alice", constants.ActionUpdate, fmt.Sprintf("TC-%d", i), "")
	}

	entries := j.Entries()
	require.Len(t, entries, constants.ActivityLogLimit)
	assert.Equal(t, fmt.Sprintf("TC-%d", constants.ActivityLogLimit+6), entries[0].Target)
	assert.Equal(t, "TC-7", entries[len(entries)-1].Target)
}

func TestJournal_WithLimit(t *testing.T) {
	j := NewJournal(nil, WithLimit(2))
	j.Append("a", constants.ActionCreate, "1", "")
	j.Append("a", constants.ActionCreate, "2", "")
	j.Append("a", constants.ActionCreate, "3", "")

	entries := j.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].Target)
	assert.Equal(t, "2", entries[1].Target)
}

func TestJournal_RecordPersists(t *testing.T) {
	repo := &memRepo{}
	j := NewJournal(repo)

	j.Record(context.Background(), "alice", constants.ActionLogin, "System", "")

	assert.Equal(t, 1, repo.saves)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "System", repo.entries[0].Target)
}

func TestJournal_SaveFailureIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	repo := &memRepo{saveErr: errors.New("quota")}
	j := NewJournal(repo, WithLogger(zerolog.New(&buf)))

	entry := j.Record(context.Background(), "alice", constants.ActionCreate, "TC-1", "")

	assert.Equal(t, "TC-1", entry.Target)
	assert.Equal(t, 1, j.Len())
	assert.Contains(t, buf.String(), "failed to persist activity log")
}

func TestJournal_Load(t *testing.T) {
	repo := &memRepo{entries: []domain.ActivityEntry{{ID: "x", Target: "TC-9"}}}
	j := NewJournal(repo)

	require.NoError(t, j.Load(context.Background()))
	assert.Equal(t, 1, j.Len())

	j.Append("alice", constants.ActionUpdate, "TC-1", "")
	entries := j.Entries()
	assert.Equal(t, "TC-1", entries[0].Target)
	assert.Equal(t, "TC-9", entries[1].Target)
}

func TestJournal_EntriesIsACopy(t *testing.T) {
	j := NewJournal(nil)
	j.Append("alice", constants.ActionUpdate, "TC-1", "")

	entries := j.Entries()
	entries[0].Target = "changed"

	assert.Equal(t, "TC-1", j.Entries()[0].Target)
}
