package ai

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

// rawCase is a test case as the model returns it.
type rawCase struct {
	CaseID               string         `json:"caseId"`
	Title                string         `json:"title"`
	Summary              string         `json:"summary"`
	Tags                 []string       `json:"tags"`
	Meta                 map[string]any `json:"meta"`
	Priority             string         `json:"priority"`
	Type                 string         `json:"type"`
	Preconditions        []string       `json:"preconditions"`
	EstimatedDurationMin flexInt        `json:"estimatedDurationMin"`
	EstimatedEffort      string         `json:"estimatedEffort"`
	Steps                []rawStep      `json:"steps"`
	NegativeFlows        []rawFlow      `json:"negativeFlows"`
}

type rawStep struct {
	StepID               string   `json:"stepId"`
	Sequence             flexInt  `json:"sequence"`
	Description          string   `json:"description"`
	ExpectedResult       string   `json:"expectedResult"`
	TestData             string   `json:"testData"`
	EstimatedDurationMin flexInt  `json:"estimatedDurationMin"`
	Priority             string   `json:"priority"`
	Dependencies         []string `json:"dependencies"`
	GeneratedExample     bool     `json:"generatedExample"`
	Notes                string   `json:"notes"`
}

type rawFlow struct {
	FlowID      string    `json:"flowId"`
	Description string    `json:"description"`
	Steps       []rawStep `json:"steps"`
}

type rawAnalysis struct {
	IsMatch        bool     `json:"isMatch"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	DetectedIssues flexList `json:"detectedIssues"`
}

type rawDefect struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	StepsToReproduce flexList `json:"stepsToReproduce"`
	ExpectedVsActual string   `json:"expectedVsActual"`
	Severity         string   `json:"severity"`
	Environment      string   `json:"environment"`
	Category         string   `json:"category"`
}

// hydrateCase validates a model case and fills in everything the core needs:
// enum defaults, gapless step numbering, unique step ids and unexecuted steps.
// The case id is kept as returned; callers decide whether to trust it.
func hydrateCase(raw *rawCase, now time.Time) (domain.TestCase, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return domain.TestCase{}, fmt.Errorf("%w: case without title", testmoerrors.ErrAIMalformedResponse)
	}
	if len(raw.Steps) == 0 {
		return domain.TestCase{}, fmt.Errorf("%w: case %q has no steps", testmoerrors.ErrAIMalformedResponse, title)
	}

	priority := constants.Priority(raw.Priority)
	if !priority.IsValid() {
		priority = constants.PriorityMedium
	}
	caseType := constants.CaseType(strings.ToLower(raw.Type))
	if !caseType.IsValid() {
		caseType = constants.CaseTypeFunctional
	}
	effort := constants.Effort(strings.ToUpper(raw.EstimatedEffort))
	if !effort.IsValid() {
		effort = constants.EffortM
	}

	steps, err := hydrateSteps(raw.Steps)
	if err != nil {
		return domain.TestCase{}, fmt.Errorf("case %q: %w", title, err)
	}

	tc := domain.TestCase{
		ID:                   strings.TrimSpace(raw.CaseID),
		Title:                title,
		Summary:              strings.TrimSpace(raw.Summary),
		Type:                 caseType,
		Meta:                 hydrateMeta(raw.Meta),
		Priority:             priority,
		Preconditions:        compact(raw.Preconditions),
		EstimatedDurationMin: max(int(raw.EstimatedDurationMin), 0),
		EstimatedEffort:      effort,
		Steps:                steps,
		Status:               constants.CaseStatusNotStarted,
		LastUpdated:          now,
	}
	tc.AddTags(raw.Tags...)
	if tc.Tags == nil {
		tc.Tags = []string{}
	}
	if tc.EstimatedDurationMin == 0 {
		for _, s := range steps {
			tc.EstimatedDurationMin += s.EstimatedDurationMin
		}
	}

	for _, f := range raw.NegativeFlows {
		desc := strings.TrimSpace(f.Description)
		if desc == "" {
			continue
		}
		flowSteps, err := hydrateSteps(f.Steps)
		if err != nil {
			return domain.TestCase{}, fmt.Errorf("case %q flow: %w", title, err)
		}
		id := strings.TrimSpace(f.FlowID)
		if id == "" {
			id = uuid.NewString()
		}
		tc.NegativeFlows = append(tc.NegativeFlows, domain.NegativeFlow{ID: id, Description: desc, Steps: flowSteps})
	}
	return tc, nil
}

// hydrateSteps orders steps by the model's sequence, renumbers them 1..n and
// replaces missing or repeated ids.
func hydrateSteps(raw []rawStep) ([]domain.TestStep, error) {
	ordered := make([]rawStep, len(raw))
	copy(ordered, raw)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	steps := make([]domain.TestStep, 0, len(ordered))
	seen := make(map[string]struct{}, len(ordered))
	for _, r := range ordered {
		desc := strings.TrimSpace(r.Description)
		if desc == "" {
			return nil, fmt.Errorf("%w: step without description", testmoerrors.ErrAIMalformedResponse)
		}
		id := strings.TrimSpace(r.StepID)
		if _, dup := seen[id]; id == "" || dup {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}

		priority := constants.Priority(r.Priority)
		if !priority.IsValid() {
			priority = ""
		}
		steps = append(steps, domain.TestStep{
			StepID:               id,
			Description:          desc,
			ExpectedResult:       strings.TrimSpace(r.ExpectedResult),
			TestData:             strings.TrimSpace(r.TestData),
			EstimatedDurationMin: max(int(r.EstimatedDurationMin), 0),
			Priority:             priority,
			Dependencies:         compact(r.Dependencies),
			GeneratedExample:     r.GeneratedExample,
			Notes:                strings.TrimSpace(r.Notes),
			Status:               constants.StepStatusNotStarted,
		})
	}
	domain.Renumber(steps)
	return steps, nil
}

// hydrateMeta flattens the meta object to strings and drops empty values.
func hydrateMeta(raw map[string]any) domain.Meta {
	if len(raw) == 0 {
		return nil
	}
	meta := make(domain.Meta, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if k = strings.TrimSpace(k); k == "" || s == "" {
			continue
		}
		meta[k] = s
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// hydrateAnalysis clamps confidence to 0..100. A fraction in (0,1) is read
// as a probability and scaled.
func hydrateAnalysis(raw *rawAnalysis) (*domain.EvidenceAnalysis, error) {
	if strings.TrimSpace(raw.Reasoning) == "" {
		return nil, fmt.Errorf("%w: analysis without reasoning", testmoerrors.ErrAIMalformedResponse)
	}
	c := raw.Confidence
	if c > 0 && c < 1 {
		c *= 100
	}
	c = min(max(c, 0), 100)
	return &domain.EvidenceAnalysis{
		IsMatch:        raw.IsMatch,
		Confidence:     math.Round(c),
		Reasoning:      strings.TrimSpace(raw.Reasoning),
		DetectedIssues: []string(raw.DetectedIssues),
	}, nil
}

func hydrateDefect(raw *rawDefect) (domain.DefectReport, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return domain.DefectReport{}, fmt.Errorf("%w: defect report without title", testmoerrors.ErrAIMalformedResponse)
	}
	severity := constants.Severity(raw.Severity)
	if !severity.IsValid() {
		severity = constants.SeverityMajor
	}
	return domain.DefectReport{
		Title:            title,
		Description:      strings.TrimSpace(raw.Description),
		StepsToReproduce: []string(raw.StepsToReproduce),
		ExpectedVsActual: strings.TrimSpace(raw.ExpectedVsActual),
		Severity:         severity,
		Environment:      strings.TrimSpace(raw.Environment),
		Category:         strings.TrimSpace(raw.Category),
	}, nil
}
