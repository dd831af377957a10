package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
	"github.com/mrz1836/testmo/internal/execution"
	"github.com/mrz1836/testmo/internal/testutil"
	"github.com/mrz1836/testmo/internal/tui"
)

// scriptedRunner replays a fixed list of runner actions and answers.
type scriptedRunner struct {
	actions  []tui.RunnerAction
	notes    []string
	comments []tui.StepCommentInput
	evidence string
	views    int
}

func (r *scriptedRunner) Show(string) { r.views++ }

func (r *scriptedRunner) Action(int, int) (tui.RunnerAction, error) {
	if len(r.actions) == 0 {
		return "", errors.ErrMenuCanceled
	}
	a := r.actions[0]
	r.actions = r.actions[1:]
	return a, nil
}

func (r *scriptedRunner) Interception(*execution.Dialog, *domain.TestStep) (tui.InterceptionInput, error) {
	if len(r.notes) == 0 {
		return tui.InterceptionInput{}, errors.ErrMenuCanceled
	}
	n := r.notes[0]
	r.notes = r.notes[1:]
	return tui.InterceptionInput{Note: n}, nil
}

func (r *scriptedRunner) EvidencePath() (string, error) { return r.evidence, nil }

func (r *scriptedRunner) Comment(*domain.TestStep) (tui.StepCommentInput, error) {
	if len(r.comments) == 0 {
		return tui.StepCommentInput{}, errors.ErrMenuCanceled
	}
	c := r.comments[0]
	r.comments = r.comments[1:]
	return c, nil
}

// newRunnerApp builds an App on the memory backend with admin logged in and
// one three-step case saved.
func newRunnerApp(t *testing.T) (*App, *bytes.Buffer, string) {
	t.Helper()
	testutil.IsolatedHome(t)
	ctx := context.Background()

	var buf bytes.Buffer
	app, err := newApp(ctx, &buf, &GlobalFlags{Backend: "memory", Output: OutputText})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	u, err := app.Users.Authenticate(ctx, "admin", "password")
	require.NoError(t, err)
	require.NoError(t, app.Session.Login(ctx, u))

	steps := []domain.TestStep{
		{StepID: "s1", Sequence: 1, Description: "Open", ExpectedResult: "Opened", Status: constants.StepStatusNotStarted},
		{StepID: "s2", Sequence: 2, Description: "Submit", ExpectedResult: "Saved", Status: constants.StepStatusNotStarted},
		{StepID: "s3", Sequence: 3, Description: "Close", ExpectedResult: "Closed", Status: constants.StepStatusNotStarted},
	}
	saved, err := app.Cases.Save(ctx, "admin", domain.TestCase{Title: "Runner", Priority: constants.PriorityMedium, Steps: steps})
	require.NoError(t, err)
	return app, &buf, saved[0].ID
}

func TestRunRunnerAllPassed(t *testing.T) {
	app, buf, id := newRunnerApp(t)
	ui := &scriptedRunner{actions: []tui.RunnerAction{tui.ActionPass, tui.ActionPass, tui.ActionPass}}

	require.NoError(t, runRunner(context.Background(), app, ui, id))

	tc, err := app.Cases.Get(id)
	require.NoError(t, err)
	assert.Equal(t, constants.CaseStatusPassed, tc.EffectiveStatus())
	assert.Equal(t, 3, ui.views)
	assert.Contains(t, buf.String(), "All 3 steps passed")
}

func TestRunRunnerFailureNeedsNote(t *testing.T) {
	app, buf, id := newRunnerApp(t)
	// Without a note the failure is canceled and the step stays as it was.
	ui := &scriptedRunner{actions: []tui.RunnerAction{tui.ActionPass, tui.ActionFail}}
	require.NoError(t, runRunner(context.Background(), app, ui, id))
	tc, err := app.Cases.Get(id)
	require.NoError(t, err)
	assert.Equal(t, constants.StepStatusNotStarted, tc.Steps[1].Status)
	assert.Contains(t, buf.String(), "Step 2 left unchanged")

	ui = &scriptedRunner{
		actions: []tui.RunnerAction{tui.ActionFail, tui.ActionNext, tui.ActionBlock},
		notes:   []string{"Save button does nothing", "Depends on step 2"},
	}
	require.NoError(t, runRunner(context.Background(), app, ui, id))

	tc, err = app.Cases.Get(id)
	require.NoError(t, err)
	assert.Equal(t, constants.StepStatusPassed, tc.Steps[0].Status)
	assert.Equal(t, constants.StepStatusFailed, tc.Steps[1].Status)
	assert.Contains(t, tc.Steps[1].Notes, "Save button does nothing")
	assert.Equal(t, constants.StepStatusBlocked, tc.Steps[2].Status)
	assert.Equal(t, constants.CaseStatusFailed, tc.EffectiveStatus())
	assert.Contains(t, buf.String(), "Run finished")
}

func TestRunRunnerComment(t *testing.T) {
	app, _, id := newRunnerApp(t)
	ui := &scriptedRunner{
		actions:  []tui.RunnerAction{tui.ActionComment, tui.ActionQuit},
		comments: []tui.StepCommentInput{{Comment: "Slow page", ActualDurationMin: "4"}},
	}
	require.NoError(t, runRunner(context.Background(), app, ui, id))

	tc, err := app.Cases.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Slow page", tc.Steps[0].Comment)
	assert.Equal(t, 4, tc.Steps[0].ActualDurationMin)
}

func TestRunRunnerBadDuration(t *testing.T) {
	app, _, id := newRunnerApp(t)
	ui := &scriptedRunner{
		actions:  []tui.RunnerAction{tui.ActionComment},
		comments: []tui.StepCommentInput{{ActualDurationMin: "four"}},
	}
	err := runRunner(context.Background(), app, ui, id)
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestRunRunnerEvidence(t *testing.T) {
	app, buf, id := newRunnerApp(t)
	shot := testutil.WriteFile(t, t.TempDir(), "shot.png", testutil.PNGHeader)
	missing := shot + ".gone"

	ui := &scriptedRunner{actions: []tui.RunnerAction{tui.ActionEvidence}, evidence: missing}
	require.NoError(t, runRunner(context.Background(), app, ui, id))
	assert.Contains(t, buf.String(), "✗", "an unreadable file is reported, not fatal")

	ui = &scriptedRunner{actions: []tui.RunnerAction{tui.ActionEvidence}, evidence: shot}
	require.NoError(t, runRunner(context.Background(), app, ui, id))

	tc, err := app.Cases.Get(id)
	require.NoError(t, err)
	assert.NotEmpty(t, tc.Steps[0].Evidence)
}

func TestRunRunnerRejectsDrafts(t *testing.T) {
	app, _, _ := newRunnerApp(t)
	ctx := context.Background()
	saved, err := app.Cases.Save(ctx, "admin", domain.TestCase{
		Title: "Draft", Draft: true,
		Steps: []domain.TestStep{{StepID: "d1", Sequence: 1, Description: "x", Status: constants.StepStatusNotStarted}},
	})
	require.NoError(t, err)

	err = runRunner(ctx, app, &scriptedRunner{}, saved[0].ID)
	require.ErrorIs(t, err, errors.ErrCaseIsDraft)
}

func TestRunRunnerCanceledContext(t *testing.T) {
	app, _, id := newRunnerApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runRunner(ctx, app, &scriptedRunner{}, id)
	require.ErrorIs(t, err, context.Canceled)
}
