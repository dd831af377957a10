package collection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/activity"
	"github.com/mrz1836/testmo/internal/clock"
	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/execution"
	"github.com/mrz1836/testmo/internal/metrics"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

type memRepo struct {
	mu      sync.Mutex
	cases   []domain.TestCase
	saves   int
	saveErr error
}

func (r *memRepo) LoadCases(context.Context) ([]domain.TestCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.cases), nil
}

func (r *memRepo) SaveCases(_ context.Context, cases []domain.TestCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.cases = cloneAll(cases)
	return nil
}

func sequentialIDs(list ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		id := list[i%len(list)]
		i++
		return id, nil
	}
}

func newTestManager(t *testing.T, seed ...domain.TestCase) (*Manager, *memRepo, *activity.Journal) {
	t.Helper()
	repo := &memRepo{cases: seed}
	journal := activity.NewJournal(nil, activity.WithClock(clock.Fixed(testNow)))
	m := NewManager(repo, journal,
		WithClock(clock.Fixed(testNow)),
		WithIDFunc(sequentialIDs("TC-000001", "TC-000002", "TC-000003", "TC-000004")),
	)
	require.NoError(t, m.Load(context.Background()))
	return m, repo, journal
}

func failedCase() domain.TestCase {
	return domain.TestCase{
		ID:    "TC-FAIL01",
		Title: "Pay with card",
		Tags:  []string{"Payments"},
		Steps: []domain.TestStep{
			{StepID: "s1", Sequence: 1, Description: "Enter card", Status: constants.StepStatusPassed},
			{
				StepID: "s2", Sequence: 2, Description: "Submit", Status: constants.StepStatusFailed,
				Notes: "declined", Evidence: "data:image/png;base64,AA==",
				EvidenceAnalysis: &domain.EvidenceAnalysis{IsMatch: false},
			},
		},
		Status:     constants.CaseStatusFailed,
		ExecutedBy: "bob",
	}
}

func lastEntry(t *testing.T, j *activity.Journal) domain.ActivityEntry {
	t.Helper()
	entries := j.Entries()
	require.NotEmpty(t, entries)
	return entries[0]
}

func TestManager_Save(t *testing.T) {
	ctx := context.Background()
	m, repo, j := newTestManager(t, failedCase())

	saved, err := m.Save(ctx, "alice", domain.TestCase{
		Title: "New",
		Steps: []domain.TestStep{{Sequence: 3, Description: "b"}, {Sequence: 1, Description: "a"}},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)

	got := saved[0]
	assert.Equal(t, "TC-000001", got.ID)
	assert.Equal(t, "alice", got.CreatedBy)
	assert.Equal(t, testNow, got.LastUpdated)
	assert.Equal(t, constants.CaseStatusNotStarted, got.Status)
	assert.Equal(t, "a", got.Steps[0].Description)
	assert.Equal(t, 2, got.Steps[1].Sequence)
	assert.NotEmpty(t, got.Steps[0].StepID)

	assert.Equal(t, []string{"TC-000001", "TC-FAIL01"}, ids(m.Cases()))
	assert.Len(t, repo.cases, 2)

	e := lastEntry(t, j)
	assert.Equal(t, constants.ActionCreate, e.Action)
	assert.Equal(t, "TC-000001", e.Target)
	assert.Equal(t, "alice", e.User)
}

func TestManager_SaveSeveralLogsOneEntry(t *testing.T) {
	ctx := context.Background()
	m, _, j := newTestManager(t)

	_, err := m.Save(ctx, "alice", domain.TestCase{Title: "One"}, domain.TestCase{Title: "Two"})
	require.NoError(t, err)
	assert.Equal(t, 1, j.Len())
	assert.Equal(t, "2 Cases", lastEntry(t, j).Target)
}

func TestManager_ValidationErrorChangesNothing(t *testing.T) {
	ctx := context.Background()
	m, repo, j := newTestManager(t, failedCase())

	_, err := m.Save(ctx, "alice", domain.TestCase{Title: "ok"}, domain.TestCase{Title: "  "})
	require.ErrorIs(t, err, errors.ErrEmptyValue)
	assert.Len(t, m.Cases(), 1)
	assert.Zero(t, repo.saves)
	assert.Zero(t, j.Len())
}

func TestManager_SaveOverwritesStaleStatus(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	tc := failedCase()
	tc.Status = constants.CaseStatusPassed
	saved, err := m.Save(ctx, "alice", tc)
	require.NoError(t, err)
	assert.Equal(t, constants.CaseStatusFailed, saved[0].Status)
}

func TestManager_Import(t *testing.T) {
	ctx := context.Background()
	m, _, j := newTestManager(t, failedCase())

	_, err := m.Import(ctx, "alice", []domain.TestCase{{Title: "I1"}, {Title: "I2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"TC-000001", "TC-000002", "TC-FAIL01"}, ids(m.Cases()))

	e := lastEntry(t, j)
	assert.Equal(t, constants.ActionImport, e.Action)
	assert.Equal(t, "2 Cases", e.Target)
}

func TestManager_Duplicate(t *testing.T) {
	ctx := context.Background()
	m, _, j := newTestManager(t, failedCase())

	dup, err := m.Duplicate(ctx, "alice", "TC-FAIL01")
	require.NoError(t, err)

	assert.Equal(t, "TC-000001", dup.ID)
	assert.Equal(t, "Pay with card (Copy)", dup.Title)
	assert.Equal(t, constants.CaseStatusNotStarted, dup.Status)
	for _, s := range dup.Steps {
		assert.Equal(t, constants.StepStatusNotStarted, s.Status)
		assert.Empty(t, s.Notes)
		assert.Empty(t, s.Evidence)
		assert.Nil(t, s.EvidenceAnalysis)
	}
	assert.Equal(t, []string{"TC-000001", "TC-FAIL01"}, ids(m.Cases()))

	orig, err := m.Get("TC-FAIL01")
	require.NoError(t, err)
	assert.Equal(t, constants.CaseStatusFailed, orig.Status)

	e := lastEntry(t, j)
	assert.Equal(t, constants.ActionCreate, e.Action)
	assert.Equal(t, "TC-000001", e.Target)
	assert.Equal(t, "Duplicated from TC-FAIL01", e.Details)
}

func TestManager_DuplicateSkipsCollidingIDs(t *testing.T) {
	seed := failedCase()
	seed.ID = "TC-000001"
	m, _, _ := newTestManager(t, seed)

	dup, err := m.Duplicate(context.Background(), "alice", "TC-000001")
	require.NoError(t, err)
	assert.Equal(t, "TC-000002", dup.ID)
}

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	m, _, j := newTestManager(t, failedCase())

	tc, err := m.Reset(ctx, "alice", "TC-FAIL01")
	require.NoError(t, err)
	assert.Equal(t, constants.CaseStatusNotStarted, tc.Status)
	assert.Empty(t, tc.Steps[1].Notes)
	assert.Empty(t, tc.ExecutedBy)

	e := lastEntry(t, j)
	assert.Equal(t, constants.ActionStatusChange, e.Action)
	assert.Equal(t, "Reset (Regression)", e.Details)
}

func TestManager_Assign(t *testing.T) {
	m, _, j := newTestManager(t, failedCase())

	tc, err := m.Assign(context.Background(), "alice", "TC-FAIL01", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", tc.AssignedTo)
	assert.Equal(t, "Assigned to carol", lastEntry(t, j).Details)

	_, err = m.Assign(context.Background(), "alice", "TC-NOPE", "carol")
	require.ErrorIs(t, err, errors.ErrCaseNotFound)
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	a, b, c := failedCase(), failedCase(), failedCase()
	a.ID, b.ID, c.ID = "TC-A", "TC-B", "TC-C"
	m, _, j := newTestManager(t, a, b, c)

	require.ErrorIs(t, m.Delete(ctx, "alice", "TC-A", "TC-NOPE"), errors.ErrCaseNotFound)
	assert.Len(t, m.Cases(), 3, "unknown id rejects the whole call")

	require.NoError(t, m.Delete(ctx, "alice", "TC-B"))
	assert.Equal(t, "TC-B", lastEntry(t, j).Target)

	require.NoError(t, m.Delete(ctx, "alice", "TC-A", "TC-C"))
	e := lastEntry(t, j)
	assert.Equal(t, "Bulk Delete", e.Target)
	assert.Equal(t, "2 cases", e.Details)
	assert.Empty(t, m.Cases())
}

func TestManager_BulkUpdate(t *testing.T) {
	ctx := context.Background()
	a, b := failedCase(), failedCase()
	a.ID, b.ID = "TC-A", "TC-B"
	m, _, j := newTestManager(t, a, b)

	a.Priority = constants.PriorityLow
	b.Priority = constants.PriorityHigh
	require.NoError(t, m.BulkUpdate(ctx, "alice", []domain.TestCase{b, a}))

	cases := m.Cases()
	assert.Equal(t, []string{"TC-A", "TC-B"}, ids(cases))
	assert.Equal(t, constants.PriorityLow, cases[0].Priority)
	assert.Equal(t, constants.PriorityHigh, cases[1].Priority)

	e := lastEntry(t, j)
	assert.Equal(t, "Bulk Update", e.Target)
	assert.Equal(t, "2 cases", e.Details)
}

func TestManager_SaveGeneratedAndActivate(t *testing.T) {
	ctx := context.Background()
	m, _, j := newTestManager(t)

	saved, err := m.SaveGenerated(ctx, "alice", parentCase(), true)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.True(t, saved[0].Draft)
	assert.True(t, saved[1].Draft)
	assert.Equal(t, constants.CaseStatusDraft, saved[1].EffectiveStatus())
	assert.Equal(t, 1, j.Len())

	drafts := m.List(Filter{Status: constants.CaseStatusDraft})
	assert.Len(t, drafts, 2)

	activated, err := m.Activate(ctx, "alice", saved[0].ID)
	require.NoError(t, err)
	require.Len(t, activated, 1)
	assert.False(t, activated[0].Draft)
	assert.Equal(t, constants.CaseStatusPassed, activated[0].Status, "activation recomputes the status")
	assert.Equal(t, "Activated", lastEntry(t, j).Details)

	before := j.Len()
	activated, err = m.Activate(ctx, "alice", saved[1].ID, saved[1].ID)
	require.NoError(t, err)
	require.Len(t, activated, 1, "a repeated id activates once")
	assert.Equal(t, before+1, j.Len())
	e := lastEntry(t, j)
	assert.Equal(t, saved[1].ID, e.Target)
	assert.Equal(t, "Activated", e.Details)
}

func TestManager_PromoteFlow(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, parentCase())

	tc, err := m.PromoteFlow(ctx, "alice", "TC-PARENT", "f1")
	require.NoError(t, err)
	assert.False(t, tc.Draft)
	assert.Equal(t, 3, tc.EstimatedDurationMin)
	assert.Equal(t, constants.CaseStatusNotStarted, tc.Status)

	_, err = m.PromoteFlow(ctx, "alice", "TC-PARENT", "nope")
	require.ErrorIs(t, err, errors.ErrFlowNotFound)
}

func TestManager_SetStepStatusInterception(t *testing.T) {
	ctx := context.Background()
	seed := failedCase()
	seed.Steps[1].Status = constants.StepStatusNotStarted
	m, repo, j := newTestManager(t, seed)

	d, err := m.SetStepStatus(ctx, "alice", "TC-FAIL01", "s2", execution.Outcome{Status: constants.StepStatusBlocked})
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Zero(t, repo.saves)
	assert.Zero(t, j.Len())

	d.SetNote("waiting on vendor")
	require.NoError(t, m.ResolveStepStatus(ctx, "alice", "TC-FAIL01", d))

	tc, err := m.Get("TC-FAIL01")
	require.NoError(t, err)
	assert.Equal(t, constants.CaseStatusBlocked, tc.Status)
	assert.Equal(t, "alice", tc.ExecutedBy)
	assert.Equal(t, "waiting on vendor", tc.Steps[1].Notes)
	assert.Equal(t, "Step 2 updated to Blocked", lastEntry(t, j).Details)
}

func TestManager_StepEdits(t *testing.T) {
	ctx := context.Background()
	m, _, j := newTestManager(t, failedCase())

	data := "4111 1111 1111 1111"
	tc, err := m.EditStep(ctx, "TC-FAIL01", "s1", execution.StepEdit{TestData: &data})
	require.NoError(t, err)
	assert.Equal(t, data, tc.Steps[0].TestData)

	tc, err = m.AttachEvidence(ctx, "TC-FAIL01", "s2", "data:new")
	require.NoError(t, err)
	assert.Nil(t, tc.Steps[1].EvidenceAnalysis)

	tc, err = m.SetAnalysis(ctx, "TC-FAIL01", "s2", &domain.EvidenceAnalysis{IsMatch: true, Confidence: 0.7})
	require.NoError(t, err)
	require.NotNil(t, tc.Steps[1].EvidenceAnalysis)

	_, err = m.RemoveEvidence(ctx, "TC-FAIL01", "s2")
	require.NoError(t, err)
	assert.Zero(t, j.Len(), "field edits are not logged")
}

func TestManager_RefinementAndVariants(t *testing.T) {
	ctx := context.Background()
	m, _, j := newTestManager(t, failedCase())

	refined := failedCase()
	refined.Title = "Pay with card (refined)"
	refined.ResetExecution()
	refined.Status = constants.CaseStatusFailed
	got, err := m.ApplyRefinement(ctx, "alice", refined)
	require.NoError(t, err)
	assert.Equal(t, constants.CaseStatusNotStarted, got.Status, "status is derived from the reset steps")
	e := lastEntry(t, j)
	assert.Equal(t, "alice", e.User)
	assert.Equal(t, "Refined with AI", e.Details)

	variant := refined
	variant.ID = ""
	variant.Draft = true
	added, err := m.AddVariants(ctx, "alice", "TC-FAIL01", []domain.TestCase{variant})
	require.NoError(t, err)
	require.Len(t, added, 1)
	e = lastEntry(t, j)
	assert.Equal(t, "alice", e.User)
	assert.Equal(t, "1 Variants", e.Target)
	assert.Equal(t, "Generated with AI from TC-FAIL01", e.Details)
}

func TestManager_RunnerCommit(t *testing.T) {
	ctx := context.Background()
	seed := failedCase()
	seed.ResetExecution()
	m, _, j := newTestManager(t, seed)

	s, err := execution.NewSession(seed, "alice", execution.WithCommitter(m), execution.WithClock(clock.Fixed(testNow)))
	require.NoError(t, err)
	require.NoError(t, s.MarkOutcome(ctx, constants.StepStatusPassed))

	tc, err := m.Get(seed.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.CaseStatusInProgress, tc.Status)
	assert.Equal(t, "Step 1 updated to Passed", lastEntry(t, j).Details)
}

func TestManager_PersistFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newTestManager(t)
	repo.saveErr = errors.ErrQuotaExceeded

	rec := metrics.NewPrometheus()
	m.metrics = rec

	saved, err := m.Save(ctx, "alice", domain.TestCase{Title: "Kept in memory"})
	require.NoError(t, err)
	assert.Len(t, m.Cases(), 1)
	assert.Equal(t, saved[0].ID, m.Cases()[0].ID)
	assert.InDelta(t, 1, testutil.ToFloat64(rec.PersistFailures.WithLabelValues(constants.KeyCases)), 0)
}

func TestFilter(t *testing.T) {
	a := failedCase()
	a.AssignedTo = "Carol"
	a.Priority = constants.PriorityHigh
	b := parentCase()
	b.Draft = true

	all := []domain.TestCase{a, b}
	tests := []struct {
		name string
		f    Filter
		want []string
	}{
		{"no filter", Filter{}, []string{"TC-FAIL01", "TC-PARENT"}},
		{"draft status", Filter{Status: constants.CaseStatusDraft}, []string{"TC-PARENT"}},
		{"failed status", Filter{Status: constants.CaseStatusFailed}, []string{"TC-FAIL01"}},
		{"priority", Filter{Priority: constants.PriorityHigh}, []string{"TC-FAIL01"}},
		{"tag case-insensitive", Filter{Tag: "auth"}, []string{"TC-PARENT"}},
		{"assignee", Filter{AssignedTo: "carol"}, []string{"TC-FAIL01"}},
		{"query title", Filter{Query: "LOGIN"}, []string{"TC-PARENT"}},
		{"query tag", Filter{Query: "paym"}, []string{"TC-FAIL01"}},
		{"limit", Filter{Limit: 1}, []string{"TC-FAIL01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.f.Apply(all)))
		})
	}
}
