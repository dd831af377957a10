package constants

// StepStatus is the execution outcome of a single test step.
// Values are PascalCase to stay compatible with stored case collections.
type StepStatus string

// Step status constants.
const (
	// StepStatusNotStarted indicates the step has not been executed.
	StepStatusNotStarted StepStatus = "NotStarted"

	// StepStatusInProgress indicates the tester started but did not finish the step.
	StepStatusInProgress StepStatus = "InProgress"

	// StepStatusPassed indicates the actual result matched the expected result.
	StepStatusPassed StepStatus = "Passed"

	// StepStatusFailed indicates the actual result deviated from the expected result.
	// A step may only enter this status with a descriptive note.
	StepStatusFailed StepStatus = "Failed"

	// StepStatusBlocked indicates the step could not be executed.
	// A step may only enter this status with a descriptive note.
	StepStatusBlocked StepStatus = "Blocked"
)

// String returns the string representation of the StepStatus.
func (s StepStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a known step status.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepStatusNotStarted, StepStatusInProgress, StepStatusPassed, StepStatusFailed, StepStatusBlocked:
		return true
	}
	return false
}

// RequiresNote reports whether entering s requires a descriptive note.
func (s StepStatus) RequiresNote() bool {
	return s == StepStatusFailed || s == StepStatusBlocked
}

// ValidStepStatuses returns all step statuses in display order.
func ValidStepStatuses() []StepStatus {
	return []StepStatus{
		StepStatusNotStarted,
		StepStatusInProgress,
		StepStatusPassed,
		StepStatusFailed,
		StepStatusBlocked,
	}
}

// CaseStatus is the case-level status. Every value except Draft is derived
// from the case's steps.
type CaseStatus string

// Case status constants.
const (
	// CaseStatusDraft marks a backlog case that has not been activated for execution.
	CaseStatusDraft CaseStatus = "Draft"

	// CaseStatusNotStarted indicates no step has been executed.
	CaseStatusNotStarted CaseStatus = "NotStarted"

	// CaseStatusInProgress indicates partial execution without failures or blocks.
	CaseStatusInProgress CaseStatus = "InProgress"

	// CaseStatusPassed indicates every step passed.
	CaseStatusPassed CaseStatus = "Passed"

	// CaseStatusFailed indicates at least one step failed.
	CaseStatusFailed CaseStatus = "Failed"

	// CaseStatusBlocked indicates at least one step is blocked and none failed.
	CaseStatusBlocked CaseStatus = "Blocked"
)

// String returns the string representation of the CaseStatus.
func (s CaseStatus) String() string {
	return string(s)
}

// IsValid reports whether s is a known case status.
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusDraft, CaseStatusNotStarted, CaseStatusInProgress,
		CaseStatusPassed, CaseStatusFailed, CaseStatusBlocked:
		return true
	}
	return false
}

// ValidCaseStatuses returns all case statuses in display order.
func ValidCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusDraft,
		CaseStatusNotStarted,
		CaseStatusInProgress,
		CaseStatusPassed,
		CaseStatusFailed,
		CaseStatusBlocked,
	}
}
