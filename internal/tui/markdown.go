package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mrz1836/testmo/internal/constants"
	"github.com/mrz1836/testmo/internal/domain"
	"github.com/mrz1836/testmo/internal/evidence"
	"github.com/mrz1836/testmo/internal/status"
)

// markdownWrap is the word-wrap width of rendered markdown.
const markdownWrap = 100

// RenderMarkdown renders md for the terminal in the given theme.
// Without color support it uses glamour's notty style; on any renderer
// error the raw markdown is returned.
func RenderMarkdown(md string, theme constants.Theme) string {
	style := "light"
	switch {
	case !HasColorSupport():
		style = "notty"
	case theme == constants.ThemeDark:
		style = "dark"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(min(markdownWrap, terminalWidth())),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// CaseMarkdown describes a case with its steps, negative flows and execution results.
func CaseMarkdown(tc *domain.TestCase) string {
	sum := status.Summarize(tc)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s · %s\n\n", tc.ID, mdEscape(tc.Title))
	fmt.Fprintf(&b, "**Status:** %s %s · **Priority:** %s · **Progress:** %d%%\n\n",
		StatusIcon(string(sum.Status)), Label(sum.Status), orDash(string(tc.Priority)), sum.Progress)

	var facts []string
	if tc.Type != "" {
		facts = append(facts, "**Type:** "+Label(tc.Type))
	}
	if tc.EstimatedEffort != "" {
		facts = append(facts, "**Effort:** "+string(tc.EstimatedEffort))
	}
	if tc.EstimatedDurationMin > 0 {
		facts = append(facts, fmt.Sprintf("**Duration:** %d min", tc.EstimatedDurationMin))
	}
	if tc.AssignedTo != "" {
		facts = append(facts, "**Assigned:** "+tc.AssignedTo)
	}
	if tc.CreatedBy != "" {
		facts = append(facts, "**Created by:** "+tc.CreatedBy)
	}
	if tc.ExecutedBy != "" {
		facts = append(facts, "**Executed by:** "+tc.ExecutedBy)
	}
	facts = append(facts, "**Updated:** "+Timestamp(tc.LastUpdated))
	b.WriteString(strings.Join(facts, " · ") + "\n\n")

	if len(tc.Tags) > 0 {
		tags := make([]string, len(tc.Tags))
		for i, t := range tc.Tags {
			tags[i] = "`" + t + "`"
		}
		b.WriteString("**Tags:** " + strings.Join(tags, " ") + "\n\n")
	}

	if tc.Summary != "" {
		b.WriteString(mdEscape(tc.Summary) + "\n\n")
	}

	if len(tc.Preconditions) > 0 {
		b.WriteString("## Preconditions\n\n")
		for _, p := range tc.Preconditions {
			b.WriteString("- " + mdEscape(p) + "\n")
		}
		b.WriteString("\n")
	}

	if len(tc.Meta) > 0 {
		b.WriteString("## Dimensions\n\n| Key | Value |\n|---|---|\n")
		for _, k := range tc.Meta.Keys() {
			fmt.Fprintf(&b, "| %s | %s |\n", cellEscape(k), cellEscape(tc.Meta[k]))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Steps\n\n")
	writeSteps(&b, tc.Steps, true)

	for _, f := range tc.NegativeFlows {
		fmt.Fprintf(&b, "## Negative flow: %s\n\n`%s`\n\n", mdEscape(f.Description), f.ID)
		writeSteps(&b, f.Steps, false)
	}

	return b.String()
}

func writeSteps(b *strings.Builder, steps []domain.TestStep, withExecution bool) {
	if len(steps) == 0 {
		b.WriteString("_No steps._\n\n")
		return
	}
	for _, s := range steps {
		if withExecution {
			fmt.Fprintf(b, "### %d. %s %s\n\n", s.Sequence, StatusIcon(string(s.Status)), mdEscape(s.Description))
		} else {
			fmt.Fprintf(b, "### %d. %s\n\n", s.Sequence, mdEscape(s.Description))
		}
		fmt.Fprintf(b, "- **Expected:** %s\n", mdEscape(s.ExpectedResult))
		if s.TestData != "" {
			fmt.Fprintf(b, "- **Test data:** `%s`\n", s.TestData)
		}
		if s.EstimatedDurationMin > 0 {
			fmt.Fprintf(b, "- **Estimate:** %d min\n", s.EstimatedDurationMin)
		}
		if len(s.Dependencies) > 0 {
			fmt.Fprintf(b, "- **Depends on:** %s\n", strings.Join(s.Dependencies, ", "))
		}
		if withExecution {
			writeExecution(b, &s)
		}
		b.WriteString("\n")
	}
}

func writeExecution(b *strings.Builder, s *domain.TestStep) {
	if s.Status != "" && s.Status != constants.StepStatusNotStarted {
		fmt.Fprintf(b, "- **Status:** %s\n", Label(s.Status))
	}
	if s.Notes != "" {
		fmt.Fprintf(b, "- **Notes:** %s\n", mdEscape(s.Notes))
	}
	if s.ActualDurationMin > 0 {
		fmt.Fprintf(b, "- **Actual:** %d min\n", s.ActualDurationMin)
	}
	if s.Comment != "" {
		fmt.Fprintf(b, "- **Comment:** %s\n", mdEscape(s.Comment))
	}
	if s.Evidence != "" {
		fmt.Fprintf(b, "- **Evidence:** %s\n", EvidenceSummary(s.Evidence))
	}
	if a := s.EvidenceAnalysis; a != nil {
		verdict := "mismatch"
		if a.IsMatch {
			verdict = "match"
		}
		fmt.Fprintf(b, "- **AI analysis:** %s (%.0f%% confidence). %s\n", verdict, a.Confidence, mdEscape(a.Reasoning))
		for _, issue := range a.DetectedIssues {
			fmt.Fprintf(b, "  - %s\n", mdEscape(issue))
		}
	}
}

// EvidenceSummary describes an evidence reference without printing its payload.
func EvidenceSummary(ref string) string {
	header, _, ok := strings.Cut(ref, ",")
	size := evidence.Size(ref)
	if !ok || size == 0 || !strings.HasPrefix(header, "data:") {
		return "attached"
	}
	mime, _, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	return fmt.Sprintf("%s, %s", mime, humanBytes(size))
}

// DefectMarkdown formats an AI defect report for a failed step.
func DefectMarkdown(r *domain.DefectReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", mdEscape(r.Title))
	fmt.Fprintf(&b, "**Severity:** %s", r.Severity)
	if r.Category != "" {
		fmt.Fprintf(&b, " · **Category:** %s", r.Category)
	}
	b.WriteString("\n\n")
	if r.Environment != "" {
		fmt.Fprintf(&b, "**Environment:** %s\n\n", mdEscape(r.Environment))
	}
	b.WriteString("## Description\n\n" + mdEscape(r.Description) + "\n\n")
	if len(r.StepsToReproduce) > 0 {
		b.WriteString("## Steps to reproduce\n\n")
		for i, s := range r.StepsToReproduce {
			fmt.Fprintf(&b, "%d. %s\n", i+1, mdEscape(s))
		}
		b.WriteString("\n")
	}
	b.WriteString("## Expected vs. actual\n\n" + mdEscape(r.ExpectedVsActual) + "\n")
	return b.String()
}

// mdEscape keeps user text from opening headings or html blocks.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "<", "&lt;")
	if strings.HasPrefix(s, "#") {
		s = `\` + s
	}
	return s
}

func cellEscape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
