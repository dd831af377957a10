package tui

import (
	"context"
	"encoding/json"
	"io"
)

// JSONOutput emits one JSON value per call for non-interactive use.
type JSONOutput struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONOutput creates a JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{w: w, encoder: json.NewEncoder(w)}
}

type jsonMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Success emits {"type":"success","message":...}.
func (o *JSONOutput) Success(msg string) { o.message("success", msg) }

// Warning emits {"type":"warning","message":...}.
func (o *JSONOutput) Warning(msg string) { o.message("warning", msg) }

// Info emits {"type":"info","message":...}.
func (o *JSONOutput) Info(msg string) { o.message("info", msg) }

func (o *JSONOutput) message(kind, msg string) {
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonMessage{Type: kind, Message: msg})
}

// Error emits the friendly message, the raw error as details and the suggestion.
func (o *JSONOutput) Error(err error) {
	ae := Actionable(err)
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(jsonError{
		Type:       "error",
		Message:    ae.Message,
		Details:    ae.Context,
		Suggestion: ae.Suggestion,
	})
}

// Table emits an array of objects keyed by header.
func (o *JSONOutput) Table(headers []string, rows [][]string) {
	result := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			} else {
				obj[h] = ""
			}
		}
		result = append(result, obj)
	}
	//nolint:errchkjson // Method has no error return per interface contract
	_ = o.encoder.Encode(result)
}

// JSON encodes v.
func (o *JSONOutput) JSON(v any) error {
	return o.encoder.Encode(v)
}

// Spinner returns a NoopSpinner; JSON output has no animation.
func (o *JSONOutput) Spinner(_ context.Context, _ string) Spinner {
	return &NoopSpinner{}
}

// IsJSON reports true.
func (o *JSONOutput) IsJSON() bool { return true }
