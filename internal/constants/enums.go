package constants

// Priority ranks cases and steps.
type Priority string

// Priority constants.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// ValidPriorities returns all priorities from highest to lowest.
func ValidPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// Effort is a t-shirt size estimate for a whole case.
type Effort string

// Effort constants.
const (
	EffortXS Effort = "XS"
	EffortS  Effort = "S"
	EffortM  Effort = "M"
	EffortL  Effort = "L"
	EffortXL Effort = "XL"
)

// IsValid reports whether e is a known effort size.
func (e Effort) IsValid() bool {
	switch e {
	case EffortXS, EffortS, EffortM, EffortL, EffortXL:
		return true
	}
	return false
}

// CaseType classifies what a case is meant to cover.
type CaseType string

// Case type constants.
const (
	CaseTypeFunctional  CaseType = "functional"
	CaseTypeRegression  CaseType = "regression"
	CaseTypeSmoke       CaseType = "smoke"
	CaseTypeExploratory CaseType = "exploratory"
)

// IsValid reports whether t is a known case type.
func (t CaseType) IsValid() bool {
	switch t {
	case CaseTypeFunctional, CaseTypeRegression, CaseTypeSmoke, CaseTypeExploratory:
		return true
	}
	return false
}

// ActivityAction is the kind of mutation recorded in the activity log.
type ActivityAction string

// Activity action constants.
const (
	ActionCreate       ActivityAction = "create"
	ActionUpdate       ActivityAction = "update"
	ActionDelete       ActivityAction = "delete"
	ActionStatusChange ActivityAction = "status_change"
	ActionImport       ActivityAction = "import"
	ActionLogin        ActivityAction = "login"
)

// IsValid reports whether a is a known activity action.
func (a ActivityAction) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionStatusChange, ActionImport, ActionLogin:
		return true
	}
	return false
}

// Role is a user's permission level.
type Role string

// Role constants.
const (
	RoleAdmin  Role = "Admin"
	RoleTester Role = "Tester"
	RoleViewer Role = "Viewer"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleTester || r == RoleViewer
}

// Severity grades a defect report.
type Severity string

// Severity constants.
const (
	SeverityCritical Severity = "Critical"
	SeverityMajor    Severity = "Major"
	SeverityMinor    Severity = "Minor"
	SeverityTrivial  Severity = "Trivial"
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor, SeverityTrivial:
		return true
	}
	return false
}

// Theme is the display theme stored with the session.
type Theme string

// Theme constants.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
