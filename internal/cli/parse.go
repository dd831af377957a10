package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
)

// normalizeEnum folds case and drops separators so "in-progress", "In Progress"
// and "InProgress" compare equal.
func normalizeEnum(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// matchEnum returns the member of values that s names.
func matchEnum[T ~string](kind, s string, values []T) (T, error) {
	n := normalizeEnum(s)
	for _, v := range values {
		if normalizeEnum(string(v)) == n {
			return v, nil
		}
	}
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = string(v)
	}
	var zero T
	return zero, errors.NewExitCode2Error(fmt.Errorf("%w: %s %q (one of %s)",
		errors.ErrInvalidArgument, kind, s, strings.Join(names, ", ")))
}

// stepStatusAliases lets testers type the verbs they use.
//
//nolint:gochecknoglobals // Read-only alias table
var stepStatusAliases = map[string]constants.StepStatus{
	"pass":    constants.StepStatusPassed,
	"fail":    constants.StepStatusFailed,
	"block":   constants.StepStatusBlocked,
	"wip":     constants.StepStatusInProgress,
	"started": constants.StepStatusInProgress,
	"todo":    constants.StepStatusNotStarted,
	"reset":   constants.StepStatusNotStarted,
}

func parseStepStatus(s string) (constants.StepStatus, error) {
	if st, ok := stepStatusAliases[normalizeEnum(s)]; ok {
		return st, nil
	}
	return matchEnum("step status", s, constants.ValidStepStatuses())
}

func parseCaseStatus(s string) (constants.CaseStatus, error) {
	if s == "" {
		return "", nil
	}
	return matchEnum("case status", s, constants.ValidCaseStatuses())
}

func parsePriority(s string) (constants.Priority, error) {
	if s == "" {
		return "", nil
	}
	return matchEnum("priority", s, constants.ValidPriorities())
}

func parseCaseType(s string) (constants.CaseType, error) {
	if s == "" {
		return "", nil
	}
	return matchEnum("type", s, []constants.CaseType{
		constants.CaseTypeFunctional, constants.CaseTypeRegression,
		constants.CaseTypeSmoke, constants.CaseTypeExploratory,
	})
}

func parseEffort(s string) (constants.Effort, error) {
	if s == "" {
		return "", nil
	}
	return matchEnum("effort", s, []constants.Effort{
		constants.EffortXS, constants.EffortS, constants.EffortM, constants.EffortL, constants.EffortXL,
	})
}

func parseRole(s string) (constants.Role, error) {
	if s == "" {
		return "", nil
	}
	return matchEnum("role", s, []constants.Role{constants.RoleAdmin, constants.RoleTester, constants.RoleViewer})
}

// resolveStep finds a step by its 1-based number or by its step id.
func resolveStep(tc *domain.TestCase, ref string) (*domain.TestStep, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		return tc.StepBySequence(n)
	}
	return tc.StepByID(ref)
}

// parseMeta turns KEY=VALUE pairs into meta entries.
func parseMeta(pairs []string) (domain.Meta, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(domain.Meta, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.NewExitCode2Error(fmt.Errorf("%w: meta %q must be KEY=VALUE", errors.ErrInvalidArgument, p))
		}
		m[k] = strings.TrimSpace(v)
	}
	return m, nil
}

// splitTags splits comma separated tags and drops blanks.
func splitTags(values []string) []string {
	var out []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}
