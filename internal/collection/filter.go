package collection

import (
	"strings"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

// Filter selects cases for listing. Zero fields match everything.
type Filter struct {
	// Status matches the effective status, so CaseStatusDraft selects drafts.
	Status     constants.CaseStatus
	Priority   constants.Priority
	Tag        string
	AssignedTo string

	// Query is a case-insensitive substring over id, title and tags.
	Query string

	// Limit caps the result; 0 means no limit.
	Limit int
}

// Match reports whether tc passes every set criterion.
func (f Filter) Match(tc *domain.TestCase) bool {
	if f.Status != "" && tc.EffectiveStatus() != f.Status {
		return false
	}
	if f.Priority != "" && tc.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !tc.HasTag(f.Tag) {
		return false
	}
	if f.AssignedTo != "" && !strings.EqualFold(tc.AssignedTo, f.AssignedTo) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if strings.Contains(strings.ToLower(tc.ID), q) || strings.Contains(strings.ToLower(tc.Title), q) {
			return true
		}
		for _, tag := range tc.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	}
	return true
}

// Apply returns the cases of in that match f, in order.
func (f Filter) Apply(in []domain.TestCase) []domain.TestCase {
	out := make([]domain.TestCase, 0, len(in))
	for i := range in {
		if !f.Match(&in[i]) {
			continue
		}
		out = append(out, in[i].Clone())
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}
