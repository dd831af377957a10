package collection

import (
	"fmt"
	"math"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

// flowTitleRunes is how much of a flow description ends up in a derived title.
const flowTitleRunes = 30

// AsBacklogDraft returns tc as a Draft case tagged Backlog.
func AsBacklogDraft(tc domain.TestCase) domain.TestCase {
	out := tc.Clone()
	out.Draft = true
	out.Status = constants.CaseStatusNotStarted
	out.AddTags(constants.TagBacklog)
	return out
}

// FlowDraft derives a Draft backlog case with id from one negative flow of parent.
func FlowDraft(parent *domain.TestCase, flow *domain.NegativeFlow, id string) domain.TestCase {
	out := fromFlow(parent, flow, id)
	out.Summary = "Backlog draft based on flow: " + flow.Description
	out.Draft = true
	out.AddTags(constants.TagAlternativeFlow, constants.TagBacklog)
	return out
}

// PromotedFlow derives an active case with id from one negative flow of parent.
// Its duration is half the parent's, at least 2 minutes.
func PromotedFlow(parent *domain.TestCase, flow *domain.NegativeFlow, id string) domain.TestCase {
	out := fromFlow(parent, flow, id)
	out.Summary = fmt.Sprintf("Variant based on: %s. Scenario: %s", parent.Title, flow.Description)
	out.EstimatedDurationMin = max(2, int(math.Round(float64(parent.EstimatedDurationMin)*0.5)))
	out.AddTags(constants.TagAlternativeFlow)
	return out
}

func fromFlow(parent *domain.TestCase, flow *domain.NegativeFlow, id string) domain.TestCase {
	out := parent.Clone()
	out.ID = id
	out.Title = flowTitle(parent.Title, flow.Description)
	out.Steps = domain.CloneSteps(flow.Steps)
	for i := range out.Steps {
		out.Steps[i].ResetExecution()
	}
	out.NegativeFlows = nil
	out.Draft = false
	out.Status = constants.CaseStatusNotStarted
	out.AssignedTo = ""
	out.ExecutedBy = ""
	return out
}

func flowTitle(title, description string) string {
	r := []rune(description)
	if len(r) > flowTitleRunes {
		r = r[:flowTitleRunes]
	}
	return title + " - " + string(r) + "..."
}

// Duplicate returns a fresh copy of tc under id with execution cleared.
func Duplicate(tc *domain.TestCase, id string) domain.TestCase {
	out := tc.Clone()
	out.ID = id
	out.Title = tc.Title + constants.CopySuffix
	out.ResetExecution()
	out.Draft = false
	out.Status = constants.CaseStatusNotStarted
	out.ExecutedBy = ""
	return out
}
