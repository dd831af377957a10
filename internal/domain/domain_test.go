package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/errors"
)

func sampleCase() TestCase {
	return TestCase{
		ID:            "TC-1001",
		Title:         "Login with valid credentials",
		Tags:          []string{"Auth", "Smoke"},
		Meta:          Meta{"CHANNEL": "Web", "WEBSITE": "CH"},
		Priority:      constants.PriorityHigh,
		Preconditions: []string{"User exists"},
		Steps: []TestStep{
			{StepID: "s1", Sequence: 1, Description: "Open login", ExpectedResult: "Form shown", Status: StepPassed},
			{
				StepID: "s2", Sequence: 2, Description: "Submit", ExpectedResult: "Dashboard",
				Status: StepFailed, Notes: "500", Evidence: "data:image/png;base64,AA==",
				EvidenceAnalysis: &EvidenceAnalysis{IsMatch: false, Confidence: 0.9, DetectedIssues: []string{"error page"}},
			},
		},
		NegativeFlows: []NegativeFlow{{ID: "f1", Description: "Wrong password", Steps: []TestStep{{StepID: "n1", Sequence: 1}}}},
		Status:        CaseFailed,
		LastUpdated:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestTestCase_DraftRoundTrip(t *testing.T) {
	c := sampleCase()
	c.Draft = true
	c.Status = CaseNotStarted

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"caseStatus":"Draft"`)

	var got TestCase
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, got.Draft)
	assert.Equal(t, CaseNotStarted, got.Status)
	assert.Equal(t, CaseDraft, got.EffectiveStatus())
}

func TestTestCase_NonDraftKeepsDerivedStatus(t *testing.T) {
	c := sampleCase()

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"caseStatus":"Failed"`)

	var got TestCase
	require.NoError(t, json.Unmarshal(data, &got))
	assert.False(t, got.Draft)
	assert.Equal(t, CaseFailed, got.EffectiveStatus())
}

func TestTestCase_Clone(t *testing.T) {
	c := sampleCase()
	cp := c.Clone()

	cp.Tags[0] = "Changed"
	cp.Meta["CHANNEL"] = "Email"
	cp.Steps[1].EvidenceAnalysis.DetectedIssues[0] = "changed"
	cp.Steps[0].Status = StepBlocked
	cp.NegativeFlows[0].Steps[0].StepID = "changed"

	assert.Equal(t, "Auth", c.Tags[0])
	assert.Equal(t, "Web", c.Meta["CHANNEL"])
	assert.Equal(t, "error page", c.Steps[1].EvidenceAnalysis.DetectedIssues[0])
	assert.Equal(t, StepPassed, c.Steps[0].Status)
	assert.Equal(t, "n1", c.NegativeFlows[0].Steps[0].StepID)
}

func TestTestCase_ResetExecution(t *testing.T) {
	c := sampleCase()
	c.ResetExecution()

	for _, s := range c.Steps {
		assert.Equal(t, StepNotStarted, s.Status)
		assert.Empty(t, s.Notes)
		assert.Empty(t, s.Evidence)
		assert.Nil(t, s.EvidenceAnalysis)
	}
	assert.Equal(t, "Submit", c.Steps[1].Description)
}

func TestTestStep_SetEvidenceClearsAnalysis(t *testing.T) {
	c := sampleCase()
	step := &c.Steps[1]

	step.SetEvidence("data:image/png;base64,BB==")
	assert.Equal(t, "data:image/png;base64,BB==", step.Evidence)
	assert.Nil(t, step.EvidenceAnalysis)
}

func TestTestCase_Lookups(t *testing.T) {
	c := sampleCase()

	s, err := c.StepByID("s2")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Sequence)

	s, err = c.StepBySequence(1)
	require.NoError(t, err)
	assert.Equal(t, "s1", s.StepID)

	_, err = c.StepByID("missing")
	require.ErrorIs(t, err, errors.ErrStepNotFound)

	_, err = c.FlowByID("nope")
	require.ErrorIs(t, err, errors.ErrFlowNotFound)
}

func TestTestCase_Tags(t *testing.T) {
	c := sampleCase()
	assert.True(t, c.HasTag("smoke"))

	c.AddTags("Backlog", "auth", " ", "Backlog")
	assert.Equal(t, []string{"Auth", "Smoke", "Backlog"}, c.Tags)
}

func TestTestCase_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := sampleCase()
		require.NoError(t, c.Validate())
	})

	t.Run("empty title", func(t *testing.T) {
		c := sampleCase()
		c.Title = "  "
		require.ErrorIs(t, c.Validate(), errors.ErrEmptyValue)
	})

	t.Run("gap in sequence", func(t *testing.T) {
		c := sampleCase()
		c.Steps[1].Sequence = 3
		require.ErrorIs(t, c.Validate(), errors.ErrInvalidArgument)
	})

	t.Run("analysis without evidence", func(t *testing.T) {
		c := sampleCase()
		c.Steps[1].Evidence = ""
		require.ErrorIs(t, c.Validate(), errors.ErrEvidenceAnalysisWithoutEvidence)
	})

	t.Run("unknown step status", func(t *testing.T) {
		c := sampleCase()
		c.Steps[0].Status = "Skipped"
		require.ErrorIs(t, c.Validate(), errors.ErrInvalidStatus)
	})
}

func TestMeta_Keys(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, Meta{"C": "3", "A": "1", "B": "2"}.Keys())
	assert.Empty(t, Meta(nil).Keys())
}

func TestInitialsFor(t *testing.T) {
	assert.Equal(t, "AS", InitialsFor("Anna Schmidt"))
	assert.Equal(t, "AB", InitialsFor("anna b carter"))
	assert.Equal(t, "Ö", InitialsFor("özil"))
	assert.Empty(t, InitialsFor(""))
}

func TestUser_Public(t *testing.T) {
	u := User{Username: "admin", PasswordHash: "$2a$..."}
	assert.Empty(t, u.Public().PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)
}
