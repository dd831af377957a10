package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/mrz1836/testmo/internal/errors"
)

// Output format names accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Output is the sink every command writes through. The text implementation
// styles messages for a terminal; the JSON implementation emits one object
// per message so scripts can parse the stream.
type Output interface {
	Success(msg string)
	Error(err error)
	Warning(msg string)
	Info(msg string)
	// Table renders rows under headers; JSON output emits an array of objects.
	Table(headers []string, rows [][]string)
	// JSON writes v as indented JSON.
	JSON(v any) error
	// Spinner shows progress for a long call such as an AI request.
	Spinner(ctx context.Context, msg string) Spinner
	// IsJSON reports whether structured output was requested.
	IsJSON() bool
}

// Spinner is a running progress indicator.
type Spinner interface {
	Update(msg string)
	Stop()
}

// ValidateFormat returns ErrInvalidOutputFormat for anything but text or json.
func ValidateFormat(format string) error {
	switch format {
	case "", FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: %q", errors.ErrInvalidOutputFormat, format)
	}
}

// NewOutput creates the Output for format. Unknown formats fall back to text;
// call ValidateFormat first to reject them.
func NewOutput(w io.Writer, format string) Output {
	if format == FormatJSON {
		return NewJSONOutput(w)
	}
	return NewTTYOutput(w)
}
