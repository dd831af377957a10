package tui

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/mrz1836/testmo/internal/errors"
)

// Prompt layout constants.
const (
	// terminalEdgeMargin keeps prompts off the terminal edge.
	terminalEdgeMargin = 4

	// minPromptWidth is the narrowest usable prompt.
	minPromptWidth = 40

	// maxPromptWidth keeps prompts readable on wide terminals.
	maxPromptWidth = 100
)

// ErrMenuCanceled is returned when the user aborts a prompt with Esc or Ctrl+C.
var ErrMenuCanceled = errors.ErrMenuCanceled //nolint:gochecknoglobals // Alias for callers of this package

// Option is a selectable prompt choice.
type Option struct {
	Label string
	Value string
}

// Interactive reports whether both stdin and stdout are terminals.
// Prompts refuse to run otherwise so scripted use never hangs.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // G115: file descriptors fit in int
}

// promptWidth adapts to the terminal, bounded to [minPromptWidth, maxPromptWidth].
func promptWidth() int {
	return max(minPromptWidth, min(maxPromptWidth, terminalWidth()-terminalEdgeMargin))
}

// runForm runs form with the TestMo theme. A non-interactive session and a
// user abort both yield ErrMenuCanceled.
func runForm(form *huh.Form, errorContext string) error {
	if !Interactive() {
		return fmt.Errorf("%w: %s needs an interactive terminal", ErrMenuCanceled, errorContext)
	}

	CheckNoColor()
	_, accessible := os.LookupEnv("ACCESSIBLE")

	err := form.
		WithTheme(Theme()).
		WithWidth(promptWidth()).
		WithAccessible(accessible).
		WithShowHelp(true).
		Run()
	if err != nil {
		if stderrors.Is(err, huh.ErrUserAborted) {
			return ErrMenuCanceled
		}
		return fmt.Errorf("%s: %w", errorContext, err)
	}
	return nil
}

// Theme returns the huh theme built from the TestMo palette.
func Theme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(ColorPrimary)
	t.Focused.Title = t.Focused.Title.Foreground(ColorPrimary)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorPrimary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorPrimary)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(ColorPrimary)
	t.Focused.SelectedPrefix = t.Focused.SelectedPrefix.Foreground(ColorSuccess)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ColorError)
	t.Focused.Description = t.Focused.Description.Foreground(ColorMuted)

	t.Blurred.Base = t.Blurred.Base.BorderForeground(ColorMuted)
	t.Blurred.Title = t.Blurred.Title.Foreground(ColorMuted)
	t.Help.Ellipsis = t.Help.Ellipsis.Foreground(ColorMuted)

	return t
}

// Select presents a single-choice list and returns the chosen value.
func Select(title string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", errors.ErrNoMenuOptions
	}
	opts := make([]huh.Option[string], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}

	var selected string
	field := huh.NewSelect[string]().Title(title).Options(opts...).Value(&selected)
	if err := runForm(huh.NewForm(huh.NewGroup(field)), "select"); err != nil {
		return "", err
	}
	return selected, nil
}

// Confirm asks a yes/no question.
func Confirm(message string, defaultYes bool) (bool, error) {
	confirmed := defaultYes
	field := huh.NewConfirm().Title(message).Affirmative("Yes").Negative("No").Value(&confirmed)
	if err := runForm(huh.NewForm(huh.NewGroup(field)), "confirm"); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Input asks for one line of text. validate may be nil.
func Input(prompt, defaultValue string, validate func(string) error) (string, error) {
	value := defaultValue
	field := huh.NewInput().Title(prompt).Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	if err := runForm(huh.NewForm(huh.NewGroup(field)), "input"); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// TextArea asks for multi-line text.
func TextArea(prompt, placeholder string) (string, error) {
	var value string
	field := huh.NewText().Title(prompt).Placeholder(placeholder).Value(&value)
	if err := runForm(huh.NewForm(huh.NewGroup(field)), "text"); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Password asks for a secret without echoing it.
func Password(prompt string) (string, error) {
	var value string
	field := huh.NewInput().Title(prompt).EchoMode(huh.EchoModePassword).Value(&value)
	if err := runForm(huh.NewForm(huh.NewGroup(field)), "password"); err != nil {
		return "", err
	}
	return value, nil
}

// required rejects blank input.
func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s %w", label, errors.ErrEmptyValue)
		}
		return nil
	}
}
