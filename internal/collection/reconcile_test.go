package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrz1836/testmo/internal/domain"
)

func ids(cases []domain.TestCase) []string {
	out := make([]string, len(cases))
	for i := range cases {
		out[i] = cases[i].ID
	}
	return out
}

func cs(idsAndTitles ...string) []domain.TestCase {
	out := make([]domain.TestCase, 0, len(idsAndTitles)/2)
	for i := 0; i+1 < len(idsAndTitles); i += 2 {
		out = append(out, domain.TestCase{ID: idsAndTitles[i], Title: idsAndTitles[i+1]})
	}
	return out
}

func TestUpsertMany(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		existing   []domain.TestCase
		incoming   []domain.TestCase
		wantIDs    []string
		wantTitles map[string]string
	}{
		{
			name:     "new ids are prepended in incoming order",
			existing: cs("A", "a", "B", "b"),
			incoming: cs("X", "x", "Y", "y"),
			wantIDs:  []string{"X", "Y", "A", "B"},
		},
		{
			name:       "existing id keeps its position",
			existing:   cs("A", "a", "B", "b", "C", "c"),
			incoming:   cs("B", "b2"),
			wantIDs:    []string{"A", "B", "C"},
			wantTitles: map[string]string{"B": "b2"},
		},
		{
			name:       "mixed update and insert",
			existing:   cs("A", "a", "B", "b"),
			incoming:   cs("B", "b2", "N", "n"),
			wantIDs:    []string{"N", "A", "B"},
			wantTitles: map[string]string{"B": "b2"},
		},
		{
			name:       "duplicate incoming ids are last write wins",
			existing:   cs("A", "a"),
			incoming:   cs("N", "first", "N", "second", "A", "a1", "A", "a2"),
			wantIDs:    []string{"N", "A"},
			wantTitles: map[string]string{"N": "second", "A": "a2"},
		},
		{
			name:     "empty existing",
			incoming: cs("A", "a"),
			wantIDs:  []string{"A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := UpsertMany(tt.existing, tt.incoming)
			assert.Equal(t, tt.wantIDs, ids(got))
			for _, tc := range got {
				if want, ok := tt.wantTitles[tc.ID]; ok {
					assert.Equal(t, want, tc.Title, tc.ID)
				}
			}
		})
	}
}

func TestUpsertMany_DoesNotModifyInputs(t *testing.T) {
	existing := cs("A", "a", "B", "b")
	UpsertMany(existing, cs("B", "changed"))
	assert.Equal(t, "b", existing[1].Title)
}

func TestPatchMany(t *testing.T) {
	got := PatchMany(cs("A", "a", "B", "b", "C", "c"), cs("C", "c2", "A", "a2", "Z", "z"))
	assert.Equal(t, []string{"A", "B", "C"}, ids(got))
	assert.Equal(t, "a2", got[0].Title)
	assert.Equal(t, "b", got[1].Title)
	assert.Equal(t, "c2", got[2].Title)
}

func TestRemoveMany(t *testing.T) {
	existing := cs("A", "a", "B", "b", "C", "c", "D", "d")

	got := RemoveMany(existing, IDSet("A", "C", "missing"))
	assert.Equal(t, []string{"B", "D"}, ids(got))
	assert.Len(t, existing, 4)

	assert.Equal(t, ids(existing), ids(RemoveMany(existing, IDSet())))
}

func TestGenerateID(t *testing.T) {
	id, err := GenerateID()
	assert.NoError(t, err)
	assert.Regexp(t, `^TC-[A-Z0-9]{6}$`, id)
}
