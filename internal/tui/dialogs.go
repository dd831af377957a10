package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/execution"
)

// InterceptionInput is what the tester supplies before a step may become
// Failed or Blocked.
type InterceptionInput struct {
	Note         string
	EvidencePath string
}

// PromptInterception asks for the mandatory note and an optional evidence
// file for the step the dialog targets. Canceling leaves the step unchanged.
func PromptInterception(d *execution.Dialog, step *domain.TestStep) (InterceptionInput, error) {
	var in InterceptionInput

	verb := "failed"
	if d.Mode() == constants.StepStatusBlocked {
		verb = "blocked"
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewNote().
			Title(fmt.Sprintf("Step %d %s", step.Sequence, verb)).
			Description(step.Description+"\nExpected: "+step.ExpectedResult),
		huh.NewText().
			Title("What happened?").
			Description("Required. Describe the deviation or the blocker.").
			Value(&in.Note).
			Validate(required("note")),
		huh.NewInput().
			Title("Evidence screenshot (optional)").
			Placeholder("path/to/screenshot.png").
			Value(&in.EvidencePath).
			Validate(optionalFile),
	))
	if err := runForm(form, "interception"); err != nil {
		return InterceptionInput{}, err
	}
	in.Note = strings.TrimSpace(in.Note)
	in.EvidencePath = strings.TrimSpace(in.EvidencePath)
	return in, nil
}

func optionalFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// RunnerAction is a choice in the guided runner loop.
type RunnerAction string

// Runner actions.
const (
	ActionPass       RunnerAction = "pass"
	ActionFail       RunnerAction = "fail"
	ActionBlock      RunnerAction = "block"
	ActionInProgress RunnerAction = "progress"
	ActionNext       RunnerAction = "next"
	ActionPrevious   RunnerAction = "previous"
	ActionEvidence   RunnerAction = "evidence"
	ActionComment    RunnerAction = "comment"
	ActionQuit       RunnerAction = "quit"
)

// Status maps an outcome action to the step status it requests.
func (a RunnerAction) Status() (constants.StepStatus, bool) {
	switch a {
	case ActionPass:
		return constants.StepStatusPassed, true
	case ActionFail:
		return constants.StepStatusFailed, true
	case ActionBlock:
		return constants.StepStatusBlocked, true
	case ActionInProgress:
		return constants.StepStatusInProgress, true
	default:
		return "", false
	}
}

// PromptRunnerAction asks what to do with the current step.
// Navigation choices are offered only where they make sense.
func PromptRunnerAction(index, total int) (RunnerAction, error) {
	opts := []Option{
		{Label: "✓ Pass", Value: string(ActionPass)},
		{Label: "✗ Fail", Value: string(ActionFail)},
		{Label: "⊘ Block", Value: string(ActionBlock)},
		{Label: "◐ In progress", Value: string(ActionInProgress)},
	}
	if index < total-1 {
		opts = append(opts, Option{Label: "→ Next step", Value: string(ActionNext)})
	}
	if index > 0 {
		opts = append(opts, Option{Label: "← Previous step", Value: string(ActionPrevious)})
	}
	opts = append(opts,
		Option{Label: "Attach evidence", Value: string(ActionEvidence)},
		Option{Label: "Add comment / actual duration", Value: string(ActionComment)},
		Option{Label: "Quit runner", Value: string(ActionQuit)},
	)

	v, err := Select(fmt.Sprintf("Step %d of %d", index+1, total), opts)
	return RunnerAction(v), err
}

// RunnerStepView renders the current step of a runner session.
func RunnerStepView(s *execution.Session) string {
	styles := NewOutputStyles()
	step := s.Current()
	tc := s.Case()

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", styles.Header.Render(tc.ID), tc.Title)
	fmt.Fprintf(&b, "%s  step %d/%d  %s\n\n",
		ProgressBar((s.Index()+1)*100/s.Total(), 20), s.Index()+1, s.Total(), StatusBadge(step.Status))
	fmt.Fprintf(&b, "%s\n%s\n\n", StyleBold.Render("Action"), step.Description)
	fmt.Fprintf(&b, "%s\n%s\n", StyleBold.Render("Expected"), step.ExpectedResult)
	if step.TestData != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", StyleBold.Render("Test data"), step.TestData)
	}
	if step.Notes != "" {
		fmt.Fprintf(&b, "\n%s %s\n", styles.Warning.Render("Note:"), step.Notes)
	}
	if step.Evidence != "" {
		fmt.Fprintf(&b, "%s %s\n", styles.Dim.Render("Evidence:"), EvidenceSummary(step.Evidence))
	}
	return b.String()
}

// StepCommentInput holds the free-form fields a tester may record on a step.
type StepCommentInput struct {
	Comment           string
	ActualDurationMin string
}

// PromptStepComment asks for a comment and the actual duration in minutes.
func PromptStepComment(step *domain.TestStep) (StepCommentInput, error) {
	in := StepCommentInput{Comment: step.Comment}
	if step.ActualDurationMin > 0 {
		in.ActualDurationMin = fmt.Sprint(step.ActualDurationMin)
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewText().Title("Comment").Value(&in.Comment),
		huh.NewInput().Title("Actual duration (minutes)").Value(&in.ActualDurationMin).Validate(optionalMinutes),
	))
	if err := runForm(form, "step comment"); err != nil {
		return StepCommentInput{}, err
	}
	return in, nil
}

func optionalMinutes(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of minutes")
	}
	return nil
}

// PromptLogin asks for username and password.
func PromptLogin(defaultUser string) (username, password string, err error) {
	username = defaultUser
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Username").Value(&username).Validate(required("username")),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
	))
	if err := runForm(form, "login"); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(username), password, nil
}

// PromptNewCase collects a manual test case: header fields, then steps until
// the tester stops adding them.
func PromptNewCase() (domain.TestCase, error) {
	var (
		tc       domain.TestCase
		priority = string(constants.PriorityMedium)
		tags     string
	)

	priorities := make([]huh.Option[string], 0, 3)
	for _, p := range constants.ValidPriorities() {
		priorities = append(priorities, huh.NewOption(string(p), string(p)))
	}

	header := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Title").Value(&tc.Title).Validate(required("title")),
		huh.NewText().Title("Summary").Value(&tc.Summary),
		huh.NewSelect[string]().Title("Priority").Options(priorities...).Value(&priority),
		huh.NewInput().Title("Tags (comma separated)").Value(&tags),
	))
	if err := runForm(header, "new case"); err != nil {
		return domain.TestCase{}, err
	}
	tc.Priority = constants.Priority(priority)
	tc.AddTags(strings.Split(tags, ",")...)

	for {
		var step domain.TestStep
		more := true
		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title(fmt.Sprintf("Step %d action", len(tc.Steps)+1)).
				Value(&step.Description).Validate(required("action")),
			huh.NewInput().Title("Expected result").Value(&step.ExpectedResult).Validate(required("expected result")),
			huh.NewInput().Title("Test data (optional)").Value(&step.TestData),
			huh.NewConfirm().Title("Add another step?").Value(&more),
		))
		if err := runForm(form, "new step"); err != nil {
			return domain.TestCase{}, err
		}
		step.Sequence = len(tc.Steps) + 1
		step.Status = constants.StepStatusNotStarted
		tc.Steps = append(tc.Steps, step)
		if !more {
			return tc, nil
		}
	}
}
