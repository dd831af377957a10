package export

import (
	"strings"

	"github.com/mrz1836/testmo/internal/domain"
)

// ExternalHeader is the header of the importer-oriented export.
var ExternalHeader = []string{"Name", "Step", "Result", "TestData", "ExternalID", "Description", "Tags"}

// External projects cases for tools without row hierarchy. Name repeats the
// case title on every row so importers can group rows; Description and Tags
// are filled on the first row of each case only.
func External(cases []domain.TestCase) *Table {
	t := &Table{Header: ExternalHeader}
	for i := range cases {
		tc := &cases[i]
		desc := describe(tc)
		tags := strings.Join(tc.Tags, ",")
		for n, step := range orderedSteps(tc) {
			row := []Cell{
				quoted(tc.Title),
				quoted(step.Description),
				quoted(step.ExpectedResult),
				quoted(step.TestData),
				bare(tc.ID),
				bare(""),
				bare(""),
			}
			if n == 0 {
				row[5] = quoted(desc)
				row[6] = quoted(tags)
			}
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

// describe builds the summary, preconditions and classification block.
func describe(tc *domain.TestCase) string {
	var b strings.Builder
	b.WriteString(tc.Summary)
	if len(tc.Preconditions) > 0 {
		b.WriteString("\n\nPreconditions:\n- ")
		b.WriteString(strings.Join(tc.Preconditions, "\n- "))
	}
	if len(tc.Meta) > 0 {
		b.WriteString("\n\nCMP Dimensions:")
		for _, k := range tc.Meta.Keys() {
			b.WriteString("\n" + k + ": " + tc.Meta[k])
		}
	}
	return b.String()
}
