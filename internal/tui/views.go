package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/testmo/internal/dashboard"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/status"
)

// titleWidth caps the title column of the case table.
const titleWidth = 48

// CaseHeaders are the columns of the case list.
//
//nolint:gochecknoglobals // Read-only column set
var CaseHeaders = []string{"ID", "TITLE", "PRIORITY", "STATUS", "PROGRESS", "ASSIGNEE", "TAGS"}

// CaseRows projects cases into case list rows.
func CaseRows(cases []domain.TestCase) [][]string {
	rows := make([][]string, 0, len(cases))
	for i := range cases {
		tc := &cases[i]
		sum := status.Summarize(tc)
		rows = append(rows, []string{
			tc.ID,
			truncate(tc.Title, titleWidth),
			PriorityBadge(tc.Priority),
			StatusBadge(sum.Status),
			fmt.Sprintf("%s %3d%%", ProgressBar(sum.Progress, 10), sum.Progress),
			orDash(tc.AssignedTo),
			truncate(strings.Join(tc.Tags, ","), 30),
		})
	}
	return rows
}

// ActivityHeaders are the columns of the activity feed.
//
//nolint:gochecknoglobals // Read-only column set
var ActivityHeaders = []string{"WHEN", "USER", "ACTION", "TARGET", "DETAILS"}

// ActivityRows projects journal entries, newest first, relative to now.
func ActivityRows(entries []domain.ActivityEntry, now time.Time) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			RelativeTime(e.Timestamp, now),
			e.User,
			Label(e.Action),
			e.Target,
			truncate(e.Details, 60),
		})
	}
	return rows
}

// UserHeaders are the columns of the user list.
//
//nolint:gochecknoglobals // Read-only column set
var UserHeaders = []string{"USERNAME", "NAME", "ROLE", "INITIALS"}

// UserRows projects users. Password hashes never reach this point.
func UserRows(users []domain.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{u.Username, u.Name, string(u.Role), u.Initials})
	}
	return rows
}

// DashboardView renders the statistics as plain styled text.
func DashboardView(s *dashboard.Stats) string {
	styles := NewOutputStyles()
	var b strings.Builder

	c := s.Counts
	b.WriteString(styles.Header.Render("Overview") + "\n")
	fmt.Fprintf(&b, "  Total %d · %s %d · %s %d · %s %d · %s %d · %s %d · Drafts %d\n",
		c.Total,
		StatusIcon("Passed"), c.Passed,
		StatusIcon("Failed"), c.Failed,
		StatusIcon("Blocked"), c.Blocked,
		StatusIcon("InProgress"), c.InProgress,
		StatusIcon("NotStarted"), c.NotStarted,
		c.Drafts)
	fmt.Fprintf(&b, "  Pass rate %s %d%%\n\n", ProgressBar(s.PassRate, 20), s.PassRate)

	b.WriteString(styles.Header.Render("Priority × status") + "\n")
	matrix := [][]string{}
	for _, r := range s.Matrix {
		matrix = append(matrix, []string{
			string(r.Priority),
			strconv.Itoa(r.Counts.Total),
			strconv.Itoa(r.Counts.Passed),
			strconv.Itoa(r.Counts.Failed),
			strconv.Itoa(r.Counts.Blocked),
			strconv.Itoa(r.Counts.InProgress),
			strconv.Itoa(r.Counts.NotStarted),
		})
	}
	b.WriteString(indent(renderGrid([]string{"PRIORITY", "TOTAL", "PASSED", "FAILED", "BLOCKED", "IN PROGRESS", "NOT STARTED"}, matrix)))
	b.WriteString("\n")

	b.WriteString(styles.Header.Render("Defect hotspots") + "\n")
	if len(s.Hotspots) == 0 {
		b.WriteString(styles.Dim.Render("  none") + "\n")
	}
	for _, h := range s.Hotspots {
		fmt.Fprintf(&b, "  %-24s %d\n", h.Tag, h.Count)
	}
	b.WriteString("\n")

	b.WriteString(styles.Header.Render("Recent defects") + "\n")
	if len(s.RecentDefects) == 0 {
		b.WriteString(styles.Dim.Render("  none") + "\n")
	}
	for i := range s.RecentDefects {
		tc := &s.RecentDefects[i]
		fmt.Fprintf(&b, "  %s %s  %s\n", StatusBadge(tc.EffectiveStatus()), tc.ID, truncate(tc.Title, titleWidth))
	}
	b.WriteString("\n")

	b.WriteString(styles.Header.Render("Last 7 days") + "\n")
	for _, p := range s.Trend {
		fmt.Fprintf(&b, "  %s  %s %-3d %s %d\n", p.Day, StatusIcon("Passed"), p.Passed, StatusIcon("Failed"), p.Failed)
	}
	return b.String()
}

// renderGrid aligns rows under headers without styling.
func renderGrid(headers []string, rows [][]string) string {
	var sb strings.Builder
	o := &TTYOutput{w: &sb, styles: NewOutputStyles()}
	o.Table(headers, rows)
	return sb.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n") + "\n"
}
