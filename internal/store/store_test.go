package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
)

func TestStore_EmptyLoads(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV(0))

	cases, err := s.LoadCases(ctx)
	require.NoError(t, err)
	assert.Empty(t, cases)

	users, err := s.LoadUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	settings, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.True(t, settings.IsZero())

	sess, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Empty(t, sess.Username)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV(0))

	draft := domain.TestCase{ID: "TC-1", Title: "Draft", Draft: true, Status: constants.CaseStatusNotStarted}
	require.NoError(t, s.SaveCases(ctx, []domain.TestCase{draft}))
	cases, err := s.LoadCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.True(t, cases[0].Draft)

	raw, err := s.KV().Get(ctx, constants.KeyCases)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"caseStatus":"Draft"`)

	entries := []domain.ActivityEntry{{ID: "a1", User: "alice", Action: constants.ActionLogin, Target: "System", Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}}
	require.NoError(t, s.SaveActivity(ctx, entries))
	gotEntries, err := s.LoadActivity(ctx)
	require.NoError(t, err)
	assert.Equal(t, entries, gotEntries)

	require.NoError(t, s.SaveSession(ctx, domain.Session{Username: "alice", Theme: constants.ThemeDark}))
	sess, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, constants.ThemeDark, sess.Theme)
}

func TestStore_SaveNilCasesWritesEmptyList(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryKV(0))
	require.NoError(t, s.SaveCases(ctx, nil))

	raw, err := s.KV().Get(ctx, constants.KeyCases)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(0)
	require.NoError(t, kv.Put(ctx, constants.KeyUsers, []byte("{not json")))

	_, err := New(kv).LoadUsers(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errors.ErrKeyNotFound)
}

func TestStore_QuotaSurfacesFromSave(t *testing.T) {
	s := New(NewMemoryKV(8))
	err := s.SaveCases(context.Background(), []domain.TestCase{{ID: "TC-1", Title: "too big"}})
	require.ErrorIs(t, err, errors.ErrQuotaExceeded)
}
