// Package collection owns the in-memory case collection. The pure functions
// in this file merge, patch and filter collections keyed by case id; Manager
// wraps them with validation, status recomputation, persistence and the
// activity log.
package collection

import "github.com/mrz1836/testmo/internal/domain"

// UpsertMany writes incoming into existing by case id. Cases whose id already
// exists are replaced in place; new cases are prepended in incoming order.
// When incoming repeats an id, the last occurrence wins. Neither input is modified.
func UpsertMany(existing, incoming []domain.TestCase) []domain.TestCase {
	latest := make(map[string]domain.TestCase, len(incoming))
	for _, tc := range incoming {
		latest[tc.ID] = tc
	}

	present := make(map[string]struct{}, len(existing))
	for _, tc := range existing {
		present[tc.ID] = struct{}{}
	}

	out := make([]domain.TestCase, 0, len(existing)+len(incoming))
	added := make(map[string]struct{})
	for _, tc := range incoming {
		if _, ok := present[tc.ID]; ok {
			continue
		}
		if _, ok := added[tc.ID]; ok {
			continue
		}
		added[tc.ID] = struct{}{}
		out = append(out, latest[tc.ID])
	}

	for _, tc := range existing {
		if repl, ok := latest[tc.ID]; ok {
			out = append(out, repl)
			continue
		}
		out = append(out, tc)
	}
	return out
}

// PatchMany replaces each case of existing that has a match in partials.
// Order is unchanged and partials without a match are ignored.
func PatchMany(existing, partials []domain.TestCase) []domain.TestCase {
	byID := make(map[string]domain.TestCase, len(partials))
	for _, tc := range partials {
		byID[tc.ID] = tc
	}

	out := make([]domain.TestCase, len(existing))
	for i, tc := range existing {
		if repl, ok := byID[tc.ID]; ok {
			out[i] = repl
			continue
		}
		out[i] = tc
	}
	return out
}

// RemoveMany drops every case whose id is in ids.
func RemoveMany(existing []domain.TestCase, ids map[string]struct{}) []domain.TestCase {
	out := make([]domain.TestCase, 0, len(existing))
	for _, tc := range existing {
		if _, drop := ids[tc.ID]; drop {
			continue
		}
		out = append(out, tc)
	}
	return out
}

// IDSet builds the set form RemoveMany expects.
func IDSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// indexOf returns the position of id in cases, or -1.
func indexOf(cases []domain.TestCase, id string) int {
	for i := range cases {
		if cases[i].ID == id {
			return i
		}
	}
	return -1
}
