// Package ai is the AI collaborator: it turns free text, documents, screenshots
// and CSV rows into test cases, refines and varies existing cases, drafts defect
// reports and checks evidence against expected results.
//
// The package talks to a Model, which sends one structured-output request to a
// remote LLM. Service wraps every call with the retry policy and hydrates the
// JSON answer into domain types.
package ai

import "context"

// Part is one piece of prompt input: either text or inline binary media.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart is a convenience constructor for a text part.
func TextPart(s string) Part { return Part{Text: s} }

// Request is a single structured-output generation request.
type Request struct {
	// System is the system instruction.
	System string

	// Parts are sent in order as the user turn.
	Parts []Part

	// Schema constrains the JSON answer. Nil means free-form JSON.
	Schema map[string]any

	Temperature float64
}

// Model sends a Request and returns the raw text of the answer.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(ctx context.Context, req Request) (string, error)

// Generate implements Model.
func (f ModelFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
