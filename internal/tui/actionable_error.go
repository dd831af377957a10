package tui

import (
	stderrors "errors"

	"github.com/mrz1836/testmo/internal/errors"
)

// ActionableError pairs a user-facing message with a suggested next step.
//
//	output.Error(tui.NewActionableError("no such case", "Run 'testmo case list'"))
//	// ✗ no such case
//	//   ▸ Try: Run 'testmo case list'
type ActionableError struct {
	// Message is the primary error message.
	Message string

	// Suggestion starts with a verb, e.g. "Run 'testmo login'".
	Suggestion string

	// Context is appended to the message in parentheses when set.
	Context string

	cause error
}

// NewActionableError creates an ActionableError with message and suggestion.
func NewActionableError(msg, suggestion string) *ActionableError {
	return &ActionableError{Message: msg, Suggestion: suggestion}
}

// Actionable converts err into an ActionableError using the sentinel message
// table. The original error stays reachable through errors.Is and is shown as
// context when its text differs from the friendly message.
func Actionable(err error) *ActionableError {
	if err == nil {
		return nil
	}
	var ae *ActionableError
	if stderrors.As(err, &ae) {
		return ae
	}
	msg, action := errors.Actionable(err)
	out := &ActionableError{Message: msg, Suggestion: action, cause: err}
	if msg != err.Error() {
		out.Context = err.Error()
	}
	return out
}

// Error implements the error interface.
func (e *ActionableError) Error() string {
	if e.Context != "" {
		return e.Message + " (" + e.Context + ")"
	}
	return e.Message
}

// Unwrap returns the error Actionable was built from, if any.
func (e *ActionableError) Unwrap() error {
	return e.cause
}

// WithContext adds context to the error and returns it for chaining.
func (e *ActionableError) WithContext(ctx string) *ActionableError {
	e.Context = ctx
	return e
}
