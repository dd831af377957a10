// Package errors provides centralized error handling for TestMo.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for input validation.
var (
	// ErrEmptyValue indicates a required value was empty or whitespace only.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidArgument indicates an argument outside the accepted set.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrValueOutOfRange indicates a numeric value outside its bounds.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrUserInputRequired indicates a command needs input it did not receive.
	ErrUserInputRequired = errors.New("user input required")

	// ErrInvalidOutputFormat indicates the --output flag value is not supported.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrJSONErrorOutput signals that an error was already written as JSON.
	ErrJSONErrorOutput = errors.New("error already written as json")

	// ErrMenuCanceled indicates the user aborted an interactive prompt.
	ErrMenuCanceled = errors.New("prompt canceled")

	// ErrNoMenuOptions indicates a selection prompt had nothing to offer.
	ErrNoMenuOptions = errors.New("no options to select from")
)

// Sentinel errors for the case collection.
var (
	// ErrCaseNotFound indicates no case exists with the requested id.
	ErrCaseNotFound = errors.New("test case not found")

	// ErrStepNotFound indicates no step exists with the requested id or number.
	ErrStepNotFound = errors.New("test step not found")

	// ErrFlowNotFound indicates no negative flow exists with the requested id.
	ErrFlowNotFound = errors.New("negative flow not found")

	// ErrInvalidStatus indicates a status value that is not part of the enum.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrEvidenceAnalysisWithoutEvidence indicates an analysis was set on a step without evidence.
	ErrEvidenceAnalysisWithoutEvidence = errors.New("evidence analysis requires evidence")
)

// Sentinel errors for execution and interception.
var (
	// ErrNoteRequired indicates a Failed or Blocked outcome was requested without a note.
	ErrNoteRequired = errors.New("a descriptive note is required to mark a step failed or blocked")

	// ErrInterceptionPending indicates input was attempted while a failure note is being collected.
	ErrInterceptionPending = errors.New("failure note dialog is open")

	// ErrNoInterception indicates confirm or cancel was called without an open dialog.
	ErrNoInterception = errors.New("no failure note dialog is open")

	// ErrSessionFinished indicates an outcome was marked after the run reached its end.
	ErrSessionFinished = errors.New("execution run is finished")

	// ErrSessionClosed indicates the run was closed.
	ErrSessionClosed = errors.New("execution run is closed")

	// ErrNoSteps indicates a run was started on a case without steps.
	ErrNoSteps = errors.New("test case has no steps")

	// ErrCaseIsDraft indicates a run was started on a draft case.
	ErrCaseIsDraft = errors.New("test case is a draft and must be activated first")
)

// Sentinel errors for users and sessions.
var (
	// ErrUserNotFound indicates no user exists with the given username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists indicates a user with the same username already exists.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials indicates the username or password did not match.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrProtectedUser indicates an attempt to delete the bootstrap administrator.
	ErrProtectedUser = errors.New("user is protected and cannot be deleted")

	// ErrNotLoggedIn indicates a command needs a session user.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrPermissionDenied indicates the session user lacks the required role.
	ErrPermissionDenied = errors.New("permission denied")
)

// Sentinel errors for persistence.
var (
	// ErrKeyNotFound indicates the storage backend has no value for the key.
	ErrKeyNotFound = errors.New("storage key not found")

	// ErrQuotaExceeded indicates a value is larger than the storage quota allows.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrLockTimeout indicates the storage lock could not be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for storage lock")

	// ErrUnknownBackend indicates a storage backend name that is not supported.
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Sentinel errors for the AI collaborator.
var (
	// ErrAIMalformedResponse indicates the service returned output that could not be
	// parsed or hydrated into the expected shape. It is never retried.
	ErrAIMalformedResponse = errors.New("ai returned a malformed response")

	// ErrAIEmptyResponse indicates the service returned no content.
	ErrAIEmptyResponse = errors.New("ai returned an empty response")

	// ErrAITransient indicates a rate limit, overload or network failure. It is retried.
	ErrAITransient = errors.New("ai service temporarily unavailable")

	// ErrAIAuth indicates the API key was missing or rejected.
	ErrAIAuth = errors.New("ai authentication failed")

	// ErrAIRequest indicates the service rejected the request for another reason.
	ErrAIRequest = errors.New("ai request failed")

	// ErrMaxRetriesExceeded indicates a transient error persisted through every attempt.
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
)

// Sentinel errors for evidence files.
var (
	// ErrEvidenceTooLarge indicates the evidence file exceeds the configured limit.
	ErrEvidenceTooLarge = errors.New("evidence file too large")

	// ErrUnsupportedEvidence indicates the evidence file is not an image.
	ErrUnsupportedEvidence = errors.New("unsupported evidence type")
)

// Sentinel errors for configuration.
var (
	// ErrConfigNil indicates a nil configuration was passed to validation.
	ErrConfigNil = errors.New("config cannot be nil")

	// ErrConfigInvalidStorage indicates an invalid storage section.
	ErrConfigInvalidStorage = errors.New("invalid storage configuration")

	// ErrConfigInvalidAI indicates an invalid ai section.
	ErrConfigInvalidAI = errors.New("invalid ai configuration")

	// ErrConfigInvalidAuth indicates an invalid auth section.
	ErrConfigInvalidAuth = errors.New("invalid auth configuration")

	// ErrConfigInvalidActivity indicates an invalid activity section.
	ErrConfigInvalidActivity = errors.New("invalid activity configuration")

	// ErrConfigInvalidUI indicates an invalid ui or evidence section.
	ErrConfigInvalidUI = errors.New("invalid ui configuration")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}

// IsValidation reports whether err is a local validation failure that should be
// surfaced to the actor without persisting anything.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrNoteRequired) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrEvidenceAnalysisWithoutEvidence)
}
