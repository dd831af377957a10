package export

import (
	"strconv"
	"strings"

	"github.com/mrz1836/testmo/internal/domain"
)

// StandardHeader is the header of the standard flat export.
var StandardHeader = []string{
	"Case ID", "Title", "Priority", "Status", "Created By",
	"Step No", "Step Description", "Expected Result", "Test Data",
	"Step Status", "Notes", "Last Updated", "Meta",
}

// Standard projects cases into the flat format: case fields are repeated on
// every step row.
func Standard(cases []domain.TestCase) *Table {
	t := &Table{Header: StandardHeader}
	for i := range cases {
		tc := &cases[i]
		meta := formatMeta(tc.Meta)
		for _, step := range orderedSteps(tc) {
			t.Rows = append(t.Rows, []Cell{
				bare(tc.ID),
				quoted(tc.Title),
				bare(string(tc.Priority)),
				bare(string(tc.EffectiveStatus())),
				bare(tc.CreatedBy),
				bare(strconv.Itoa(step.Sequence)),
				quoted(step.Description),
				quoted(step.ExpectedResult),
				quoted(step.TestData),
				bare(string(step.Status)),
				quoted(step.Notes),
				bare(formatTimestamp(tc.LastUpdated)),
				quoted(meta),
			})
		}
	}
	return t
}

// formatMeta writes k:v pairs joined by |, keys sorted.
func formatMeta(m domain.Meta) string {
	if len(m) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		parts = append(parts, k+":"+m[k])
	}
	return strings.Join(parts, "|")
}
