// Package metrics collects counters about case mutations, step outcomes,
// AI calls and persistence failures.
package metrics

import (
	"time"

	"github.com/mrz1836/testmo/internal/constants"
)

// Recorder receives metric events. Implementations must be safe for concurrent use.
type Recorder interface {
	// CaseMutation is called once per collection operation with the number of cases touched.
	CaseMutation(action constants.ActivityAction, cases int)

	// StepOutcome is called after a step outcome is applied.
	StepOutcome(status constants.StepStatus)

	// AICall is called when an AI operation finishes. outcome is "ok" or an error class.
	AICall(operation, outcome string, duration time.Duration)

	// AIRetry is called before each retry of an AI operation.
	AIRetry(operation string)

	// PersistFailure is called when saving a storage key failed.
	PersistFailure(key string)
}

// NoopRecorder discards every event.
type NoopRecorder struct{}

var _ Recorder = NoopRecorder{}

// CaseMutation implements Recorder.
func (NoopRecorder) CaseMutation(constants.ActivityAction, int) {}

// StepOutcome implements Recorder.
func (NoopRecorder) StepOutcome(constants.StepStatus) {}

// AICall implements Recorder.
func (NoopRecorder) AICall(string, string, time.Duration) {}

// AIRetry implements Recorder.
func (NoopRecorder) AIRetry(string) {}

// PersistFailure implements Recorder.
func (NoopRecorder) PersistFailure(string) {}
