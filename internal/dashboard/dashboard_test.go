package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

var day0 = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func mk(id string, prio constants.Priority, status constants.CaseStatus, daysAgo int, tags ...string) domain.TestCase {
	return domain.TestCase{
		ID:          id,
		Title:       id,
		Priority:    prio,
		Status:      status,
		Tags:        tags,
		LastUpdated: day0.AddDate(0, 0, -daysAgo),
	}
}

func fixture() []domain.TestCase {
	draft := mk("D1", constants.PriorityHigh, constants.CaseStatusNotStarted, 0, "Checkout")
	draft.Draft = true
	return []domain.TestCase{
		mk("P1", constants.PriorityHigh, constants.CaseStatusPassed, 0),
		mk("P2", constants.PriorityLow, constants.CaseStatusPassed, 1),
		mk("P3", constants.PriorityLow, constants.CaseStatusPassed, 1),
		mk("F1", constants.PriorityHigh, constants.CaseStatusFailed, 2, "Checkout", "Regression"),
		mk("F2", constants.PriorityMedium, constants.CaseStatusFailed, 0, "Checkout", "Login"),
		mk("B1", constants.PriorityMedium, constants.CaseStatusBlocked, 3, "Login", "Smoke"),
		mk("I1", constants.PriorityMedium, constants.CaseStatusInProgress, 0),
		mk("N1", constants.PriorityLow, constants.CaseStatusNotStarted, 0),
		draft,
	}
}

func TestCompute_Counts(t *testing.T) {
	t.Parallel()

	st := Compute(fixture())
	assert.Equal(t, Counts{Total: 8, Passed: 3, Failed: 2, Blocked: 1, InProgress: 1, NotStarted: 1, Drafts: 1}, st.Counts)
	// 3 passed of 7 started.
	assert.Equal(t, 43, st.PassRate)
}

func TestCompute_Matrix(t *testing.T) {
	t.Parallel()

	st := Compute(fixture())
	require.Len(t, st.Matrix, 3)
	assert.Equal(t, constants.PriorityHigh, st.Matrix[0].Priority)
	assert.Equal(t, Counts{Total: 2, Passed: 1, Failed: 1}, st.Matrix[0].Counts)
	assert.Equal(t, Counts{Total: 3, Failed: 1, Blocked: 1, InProgress: 1}, st.Matrix[1].Counts)
	assert.Equal(t, Counts{Total: 3, Passed: 2, NotStarted: 1}, st.Matrix[2].Counts)
}

func TestCompute_HotspotsAndDefects(t *testing.T) {
	t.Parallel()

	st := Compute(fixture())
	assert.Equal(t, []Hotspot{{Tag: "Checkout", Count: 2}, {Tag: "Login", Count: 2}}, st.Hotspots)

	ids := make([]string, len(st.RecentDefects))
	for i, c := range st.RecentDefects {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"F2", "F1", "B1"}, ids)
}

func TestCompute_Trend(t *testing.T) {
	t.Parallel()

	st := Compute(fixture())
	assert.Equal(t, []TrendPoint{
		{Day: "2026-03-29", Failed: 1},
		{Day: "2026-03-30", Failed: 1},
		{Day: "2026-03-31", Passed: 2},
		{Day: "2026-04-01", Passed: 1, Failed: 1},
	}, st.Trend)
}

func TestCompute_Limits(t *testing.T) {
	t.Parallel()

	var cases []domain.TestCase
	for i := range 10 {
		cases = append(cases, mk(fmt.Sprintf("F%d", i), constants.PriorityHigh, constants.CaseStatusFailed, i, fmt.Sprintf("tag%d", i)))
	}
	st := Compute(cases)
	assert.Len(t, st.Hotspots, 5)
	assert.Len(t, st.RecentDefects, 5)
	assert.Equal(t, "F0", st.RecentDefects[0].ID)
	assert.Len(t, st.Trend, 7)
	assert.Equal(t, "2026-04-01", st.Trend[6].Day)
	assert.Equal(t, 0, st.PassRate)
}

func TestCompute_Empty(t *testing.T) {
	t.Parallel()

	st := Compute(nil)
	assert.Zero(t, st.Counts)
	assert.Zero(t, st.PassRate)
	assert.Len(t, st.Matrix, 3)
	assert.Empty(t, st.Hotspots)
}

func TestCases(t *testing.T) {
	t.Parallel()

	all := fixture()
	assert.Len(t, Cases(all, DrillTotal), 8)
	assert.Len(t, Cases(all, DrillPassed), 3)
	assert.Len(t, Cases(all, DrillFailed), 3)
	drafts := Cases(all, DrillDrafts)
	require.Len(t, drafts, 1)
	assert.Equal(t, "D1", drafts[0].ID)
	assert.Empty(t, Cases(all, "unknown"))
}
