package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

// TestCase is the top-level testable unit: an ordered list of steps plus
// descriptive fields. The collection of cases is keyed by ID.
//
// Status is always the value derived from Steps. Draft is a separate lifecycle
// flag; while it is set, the status engine leaves Status alone. On the wire the
// two are folded back into a single caseStatus field, "Draft" while the flag is set.
type TestCase struct {
	ID      string             `json:"caseId"`
	Title   string             `json:"title"`
	Summary string             `json:"summary"`
	Type    constants.CaseType `json:"type,omitempty"`

	// Tags have set semantics for membership but keep insertion order for display.
	Tags []string `json:"tags"`

	// Meta holds classification dimensions. The core passes it through untouched.
	Meta Meta `json:"meta,omitempty"`

	Priority             constants.Priority `json:"priority"`
	Preconditions        []string           `json:"preconditions"`
	EstimatedDurationMin int                `json:"estimatedDurationMin"`
	EstimatedEffort      constants.Effort   `json:"estimatedEffort,omitempty"`

	Steps         []TestStep     `json:"steps"`
	NegativeFlows []NegativeFlow `json:"negativeFlows,omitempty"`

	Status constants.CaseStatus `json:"caseStatus"`
	Draft  bool                 `json:"-"`

	LastUpdated time.Time `json:"lastUpdated"`
	CreatedBy   string    `json:"createdBy,omitempty"`

	// AssignedTo and ExecutedBy are weak username references.
	AssignedTo string `json:"assignedTo,omitempty"`
	ExecutedBy string `json:"executedBy,omitempty"`
}

// NegativeFlow is an alternate error or edge path that can be promoted to its own case.
type NegativeFlow struct {
	ID          string     `json:"flowId"`
	Description string     `json:"description"`
	Steps       []TestStep `json:"steps"`
}

// Meta is a set of classification dimensions, e.g. CHANNEL=Web.
type Meta map[string]string

// Keys returns the dimension names in sorted order.
func (m Meta) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// caseAlias strips the custom JSON methods to avoid recursion.
type caseAlias TestCase

// MarshalJSON writes Draft cases with caseStatus "Draft".
func (c TestCase) MarshalJSON() ([]byte, error) {
	a := caseAlias(c)
	if c.Draft {
		a.Status = constants.CaseStatusDraft
	}
	return json.Marshal(a)
}

// UnmarshalJSON restores the Draft flag from caseStatus "Draft". Draft steps
// are presumed unexecuted, so the underlying status becomes NotStarted.
func (c *TestCase) UnmarshalJSON(data []byte) error {
	var a caseAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = TestCase(a)
	if c.Status == constants.CaseStatusDraft {
		c.Draft = true
		c.Status = constants.CaseStatusNotStarted
	}
	return nil
}

// EffectiveStatus is the status shown to users: Draft while the flag is set,
// otherwise the derived status.
func (c *TestCase) EffectiveStatus() constants.CaseStatus {
	if c.Draft {
		return constants.CaseStatusDraft
	}
	if c.Status == "" {
		return constants.CaseStatusNotStarted
	}
	return c.Status
}

// StepByID returns a pointer to the step with the given id.
func (c *TestCase) StepByID(stepID string) (*TestStep, error) {
	for i := range c.Steps {
		if c.Steps[i].StepID == stepID {
			return &c.Steps[i], nil
		}
	}
	return nil, fmt.Errorf("case %s step %q: %w", c.ID, stepID, errors.ErrStepNotFound)
}

// StepBySequence returns a pointer to the step with the given 1-based number.
func (c *TestCase) StepBySequence(seq int) (*TestStep, error) {
	for i := range c.Steps {
		if c.Steps[i].Sequence == seq {
			return &c.Steps[i], nil
		}
	}
	return nil, fmt.Errorf("case %s step %d: %w", c.ID, seq, errors.ErrStepNotFound)
}

// FlowByID returns the negative flow with the given id.
func (c *TestCase) FlowByID(flowID string) (*NegativeFlow, error) {
	for i := range c.NegativeFlows {
		if c.NegativeFlows[i].ID == flowID {
			return &c.NegativeFlows[i], nil
		}
	}
	return nil, fmt.Errorf("case %s flow %q: %w", c.ID, flowID, errors.ErrFlowNotFound)
}

// SortSteps orders Steps by Sequence. The sort is stable.
func (c *TestCase) SortSteps() {
	sort.SliceStable(c.Steps, func(i, j int) bool {
		return c.Steps[i].Sequence < c.Steps[j].Sequence
	})
}

// HasTag reports whether tag is present, compared case-insensitively.
func (c *TestCase) HasTag(tag string) bool {
	return slices.ContainsFunc(c.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// AddTags appends the tags that are not yet present, keeping order.
func (c *TestCase) AddTags(tags ...string) {
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || c.HasTag(tag) {
			continue
		}
		c.Tags = append(c.Tags, tag)
	}
}

// ResetExecution clears every step's execution fields.
func (c *TestCase) ResetExecution() {
	for i := range c.Steps {
		c.Steps[i].ResetExecution()
	}
}

// Clone returns a deep copy of the case.
func (c *TestCase) Clone() TestCase {
	out := *c
	out.Tags = slices.Clone(c.Tags)
	out.Preconditions = slices.Clone(c.Preconditions)
	if c.Meta != nil {
		out.Meta = make(Meta, len(c.Meta))
		for k, v := range c.Meta {
			out.Meta[k] = v
		}
	}
	out.Steps = CloneSteps(c.Steps)
	if c.NegativeFlows != nil {
		out.NegativeFlows = make([]NegativeFlow, len(c.NegativeFlows))
		for i, f := range c.NegativeFlows {
			out.NegativeFlows[i] = NegativeFlow{ID: f.ID, Description: f.Description, Steps: CloneSteps(f.Steps)}
		}
	}
	return out
}

// Validate checks the invariants a stored case must satisfy.
func (c *TestCase) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("case id %w", errors.ErrEmptyValue)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("case %s title %w", c.ID, errors.ErrEmptyValue)
	}
	seen := make(map[string]struct{}, len(c.Steps))
	for i := range c.Steps {
		s := &c.Steps[i]
		if s.Sequence != i+1 {
			return fmt.Errorf("case %s: step sequence must be gapless, got %d at position %d: %w",
				c.ID, s.Sequence, i+1, errors.ErrInvalidArgument)
		}
		if _, dup := seen[s.StepID]; dup {
			return fmt.Errorf("case %s: duplicate step id %q: %w", c.ID, s.StepID, errors.ErrInvalidArgument)
		}
		seen[s.StepID] = struct{}{}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("case %s: %w", c.ID, err)
		}
	}
	return nil
}
