// Package dashboard computes the read-only statistics shown on the dashboard.
// Drafts are counted separately and excluded from every other figure.
package dashboard

import (
	"sort"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
)

const (
	topN      = 5
	trendDays = 7
	dayLayout = "2006-01-02"
)

// hotspotIgnored are tags too generic to point at a problem area.
//
//nolint:gochecknoglobals // constant-like set
var hotspotIgnored = map[string]struct{}{"Regression": {}, "Smoke": {}, "Automated": {}}

// Counts are per-status totals over non-draft cases.
type Counts struct {
	Total      int `json:"total"`
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Blocked    int `json:"blocked"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
	Drafts     int `json:"drafts"`
}

func (c *Counts) add(s constants.CaseStatus) {
	c.Total++
	switch s {
	case constants.CaseStatusPassed:
		c.Passed++
	case constants.CaseStatusFailed:
		c.Failed++
	case constants.CaseStatusBlocked:
		c.Blocked++
	case constants.CaseStatusInProgress:
		c.InProgress++
	default:
		c.NotStarted++
	}
}

// MatrixRow is the status breakdown for one priority.
type MatrixRow struct {
	Priority constants.Priority `json:"priority"`
	Counts   Counts             `json:"counts"`
}

// Hotspot is a tag and how many failed or blocked cases carry it.
type Hotspot struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TrendPoint counts passed and failed-or-blocked cases last updated on Day.
type TrendPoint struct {
	Day    string `json:"day"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
}

// Stats is the full dashboard projection.
type Stats struct {
	Counts Counts `json:"counts"`

	// PassRate is passed / started cases, in percent, rounded. Zero when nothing started.
	PassRate int `json:"passRate"`

	Matrix        []MatrixRow       `json:"matrix"`
	Hotspots      []Hotspot         `json:"hotspots"`
	RecentDefects []domain.TestCase `json:"recentDefects"`
	Trend         []TrendPoint      `json:"trend"`
}

// Compute builds the dashboard statistics for cases.
func Compute(cases []domain.TestCase) Stats {
	var st Stats
	matrix := make(map[constants.Priority]*Counts)
	tagFailures := make(map[string]int)
	trend := make(map[string]*TrendPoint)
	var defects []domain.TestCase

	for i := range cases {
		tc := &cases[i]
		if tc.Draft {
			st.Counts.Drafts++
			continue
		}
		status := tc.EffectiveStatus()
		st.Counts.add(status)

		if c, ok := matrix[tc.Priority]; ok {
			c.add(status)
		} else {
			c = &Counts{}
			c.add(status)
			matrix[tc.Priority] = c
		}

		day := tc.LastUpdated.UTC().Format(dayLayout)
		p, ok := trend[day]
		if !ok {
			p = &TrendPoint{Day: day}
			trend[day] = p
		}

		switch status {
		case constants.CaseStatusPassed:
			p.Passed++
		case constants.CaseStatusFailed, constants.CaseStatusBlocked:
			p.Failed++
			defects = append(defects, tc.Clone())
			for _, tag := range tc.Tags {
				if _, skip := hotspotIgnored[tag]; !skip {
					tagFailures[tag]++
				}
			}
		}
	}

	if started := st.Counts.Total - st.Counts.NotStarted; started > 0 {
		st.PassRate = (st.Counts.Passed*100 + started/2) / started
	}

	for _, prio := range constants.ValidPriorities() {
		row := MatrixRow{Priority: prio}
		if c, ok := matrix[prio]; ok {
			row.Counts = *c
		}
		st.Matrix = append(st.Matrix, row)
	}

	st.Hotspots = hotspots(tagFailures)
	st.RecentDefects = recent(defects)
	st.Trend = trendPoints(trend)
	return st
}

func hotspots(counts map[string]int) []Hotspot {
	out := make([]Hotspot, 0, len(counts))
	for tag, n := range counts {
		out = append(out, Hotspot{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func recent(defects []domain.TestCase) []domain.TestCase {
	sort.SliceStable(defects, func(i, j int) bool {
		return defects[i].LastUpdated.After(defects[j].LastUpdated)
	})
	if len(defects) > topN {
		defects = defects[:topN]
	}
	return defects
}

func trendPoints(days map[string]*TrendPoint) []TrendPoint {
	out := make([]TrendPoint, 0, len(days))
	for _, p := range days {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	if len(out) > trendDays {
		out = out[len(out)-trendDays:]
	}
	return out
}

// DrillDown names a dashboard card whose cases can be listed.
type DrillDown string

// Drill-down cards.
const (
	DrillTotal  DrillDown = "total"
	DrillPassed DrillDown = "passed"
	DrillFailed DrillDown = "failed"
	DrillDrafts DrillDown = "drafts"
)

// Cases returns the cases behind a dashboard card. The failed card includes
// blocked cases.
func Cases(cases []domain.TestCase, card DrillDown) []domain.TestCase {
	var out []domain.TestCase
	for i := range cases {
		tc := &cases[i]
		var match bool
		switch card {
		case DrillTotal:
			match = !tc.Draft
		case DrillPassed:
			match = !tc.Draft && tc.Status == constants.CaseStatusPassed
		case DrillFailed:
			match = !tc.Draft && (tc.Status == constants.CaseStatusFailed || tc.Status == constants.CaseStatusBlocked)
		case DrillDrafts:
			match = tc.Draft
		}
		if match {
			out = append(out, tc.Clone())
		}
	}
	return out
}
