// Package domain provides shared domain types for TestMo: test cases, their steps,
// negative flows, users, project settings and activity entries.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// JSON field names are camelCase so collections written by earlier
// releases keep loading.
package domain

import "github.com/mrz1836/testmo/internal/constants"

// Re-export the status types so callers can work with domain objects and
// their statuses through one import.
type (
	// StepStatus is the execution outcome of a single step.
	StepStatus = constants.StepStatus

	// CaseStatus is the case-level status.
	CaseStatus = constants.CaseStatus
)

// Re-export step status constants.
const (
	StepNotStarted = constants.StepStatusNotStarted
	StepInProgress = constants.StepStatusInProgress
	StepPassed     = constants.StepStatusPassed
	StepFailed     = constants.StepStatusFailed
	StepBlocked    = constants.StepStatusBlocked
)

// Re-export case status constants.
const (
	CaseDraft      = constants.CaseStatusDraft
	CaseNotStarted = constants.CaseStatusNotStarted
	CaseInProgress = constants.CaseStatusInProgress
	CasePassed     = constants.CaseStatusPassed
	CaseFailed     = constants.CaseStatusFailed
	CaseBlocked    = constants.CaseStatusBlocked
)
