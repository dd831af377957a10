package cli

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/errors"
)

// caseFile is the YAML form of a hand-written test case:
//
//	title: Login with valid credentials
//	priority: High
//	tags: [Auth, Smoke]
//	meta: {CHANNEL: Web}
//	steps:
//	  - action: Open the login page
//	    expected: The form is shown
type caseFile struct {
	ID            string            `yaml:"id,omitempty"`
	Title         string            `yaml:"title"`
	Summary       string            `yaml:"summary,omitempty"`
	Type          string            `yaml:"type,omitempty"`
	Priority      string            `yaml:"priority,omitempty"`
	Effort        string            `yaml:"effort,omitempty"`
	DurationMin   int               `yaml:"duration,omitempty"`
	Tags          []string          `yaml:"tags,omitempty"`
	Meta          map[string]string `yaml:"meta,omitempty"`
	Preconditions []string          `yaml:"preconditions,omitempty"`
	AssignedTo    string            `yaml:"assigned_to,omitempty"`
	Draft         bool              `yaml:"draft,omitempty"`
	Steps         []caseFileStep    `yaml:"steps"`
	NegativeFlows []caseFileFlow    `yaml:"negative_flows,omitempty"`
}

type caseFileStep struct {
	Action       string   `yaml:"action"`
	Expected     string   `yaml:"expected"`
	TestData     string   `yaml:"test_data,omitempty"`
	DurationMin  int      `yaml:"duration,omitempty"`
	Priority     string   `yaml:"priority,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
}

type caseFileFlow struct {
	Description string         `yaml:"description"`
	Steps       []caseFileStep `yaml:"steps"`
}

// readCaseFiles decodes one or more YAML documents from path.
func readCaseFiles(path string) ([]domain.TestCase, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied case file
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}
	return decodeCaseFiles(data)
}

func decodeCaseFiles(data []byte) ([]domain.TestCase, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var out []domain.TestCase
	for {
		var f caseFile
		err := dec.Decode(&f)
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				break
			}
			return nil, errors.NewExitCode2Error(fmt.Errorf("%w: case file document %d: %w", errors.ErrInvalidArgument, len(out)+1, err))
		}
		tc, err := f.toCase()
		if err != nil {
			return nil, errors.NewExitCode2Error(fmt.Errorf("case file document %d: %w", len(out)+1, err))
		}
		out = append(out, tc)
	}
	if len(out) == 0 {
		return nil, errors.NewExitCode2Error(fmt.Errorf("case file %w", errors.ErrEmptyValue))
	}
	return out, nil
}

func (f *caseFile) toCase() (domain.TestCase, error) {
	if strings.TrimSpace(f.Title) == "" {
		return domain.TestCase{}, fmt.Errorf("title %w", errors.ErrEmptyValue)
	}
	priority, err := parsePriority(f.Priority)
	if err != nil {
		return domain.TestCase{}, err
	}
	if priority == "" {
		priority = constants.PriorityMedium
	}
	caseType, err := parseCaseType(f.Type)
	if err != nil {
		return domain.TestCase{}, err
	}
	effort, err := parseEffort(f.Effort)
	if err != nil {
		return domain.TestCase{}, err
	}
	steps, err := fileSteps(f.Steps)
	if err != nil {
		return domain.TestCase{}, err
	}

	tc := domain.TestCase{
		ID:                   strings.TrimSpace(f.ID),
		Title:                strings.TrimSpace(f.Title),
		Summary:              f.Summary,
		Type:                 caseType,
		Priority:             priority,
		EstimatedEffort:      effort,
		EstimatedDurationMin: f.DurationMin,
		Preconditions:        f.Preconditions,
		AssignedTo:           f.AssignedTo,
		Draft:                f.Draft,
		Steps:                steps,
	}
	tc.AddTags(f.Tags...)
	if len(f.Meta) > 0 {
		tc.Meta = domain.Meta(f.Meta)
	}
	for _, fl := range f.NegativeFlows {
		flowSteps, err := fileSteps(fl.Steps)
		if err != nil {
			return domain.TestCase{}, err
		}
		domain.Renumber(flowSteps)
		tc.NegativeFlows = append(tc.NegativeFlows, domain.NegativeFlow{
			ID:          uuid.NewString(),
			Description: fl.Description,
			Steps:       flowSteps,
		})
	}
	return tc, nil
}

func fileSteps(in []caseFileStep) ([]domain.TestStep, error) {
	steps := make([]domain.TestStep, 0, len(in))
	for i, s := range in {
		if strings.TrimSpace(s.Action) == "" {
			return nil, fmt.Errorf("step %d action %w", i+1, errors.ErrEmptyValue)
		}
		p, err := parsePriority(s.Priority)
		if err != nil {
			return nil, err
		}
		steps = append(steps, domain.TestStep{
			StepID:               uuid.NewString(),
			Sequence:             i + 1,
			Description:          s.Action,
			ExpectedResult:       s.Expected,
			TestData:             s.TestData,
			EstimatedDurationMin: s.DurationMin,
			Priority:             p,
			Dependencies:         s.Dependencies,
			Status:               constants.StepStatusNotStarted,
		})
	}
	return steps, nil
}
