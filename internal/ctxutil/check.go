// Package ctxutil holds small context helpers shared by commands.
package ctxutil

import "context"

// Canceled returns the context error once ctx is done, nil before.
// A nil ctx counts as live.
func Canceled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

// OrBackground returns ctx, or context.Background when ctx is nil.
// Cobra commands executed without ExecuteContext carry a nil context.
func OrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
