// Package tui provides terminal user interface components for TestMo.
//
// Colors are lipgloss AdaptiveColors so output reads on light and dark
// terminals. Statuses are always rendered as icon + color + text so that
// NO_COLOR output loses nothing.
//
// Call CheckNoColor() before rendering styled output.
package tui

import (
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mrz1836/testmo/internal/constants"
)

//nolint:gochecknoglobals // Package-level palette for TUI styling
var (
	// ColorPrimary is blue, used for active states and headings.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0369A1", Dark: "#38BDF8"}

	// ColorSuccess is green, used for passed steps and cases.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}

	// ColorWarning is amber, used for blocked and in-progress work.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}

	// ColorError is red, used for failures.
	ColorError = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}

	// ColorMuted is gray, used for secondary text, drafts and not-started work.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#57534E", Dark: "#A8A29E"}

	// ColorDraft is violet, used for backlog drafts.
	ColorDraft = lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#C4B5FD"}

	// StyleBold applies bold formatting.
	StyleBold = lipgloss.NewStyle().Bold(true)

	// StyleDim applies faint formatting.
	StyleDim = lipgloss.NewStyle().Faint(true)
)

// statusColor maps a case or step status value to its color.
func statusColor(s string) lipgloss.AdaptiveColor {
	switch s {
	case string(constants.CaseStatusPassed):
		return ColorSuccess
	case string(constants.CaseStatusFailed):
		return ColorError
	case string(constants.CaseStatusBlocked), string(constants.CaseStatusInProgress):
		return ColorWarning
	case string(constants.CaseStatusDraft):
		return ColorDraft
	default:
		return ColorMuted
	}
}

// StatusIcon returns the icon for a case or step status.
func StatusIcon(s string) string {
	switch s {
	case string(constants.CaseStatusPassed):
		return "✓"
	case string(constants.CaseStatusFailed):
		return "✗"
	case string(constants.CaseStatusBlocked):
		return "⊘"
	case string(constants.CaseStatusInProgress):
		return "◐"
	case string(constants.CaseStatusDraft):
		return "✎"
	case string(constants.CaseStatusNotStarted):
		return "○"
	default:
		return "?"
	}
}

// StatusBadge renders a status as colored icon and label.
func StatusBadge[S ~string](s S) string {
	text := StatusIcon(string(s)) + " " + Label(s)
	if !HasColorSupport() {
		return text
	}
	return lipgloss.NewStyle().Foreground(statusColor(string(s))).Render(text)
}

// PriorityBadge renders a priority with its color: High red, Medium amber, Low muted.
func PriorityBadge(p constants.Priority) string {
	if p == "" {
		return "-"
	}
	color := ColorMuted
	switch p {
	case constants.PriorityHigh:
		color = ColorError
	case constants.PriorityMedium:
		color = ColorWarning
	case constants.PriorityLow:
	}
	if !HasColorSupport() {
		return string(p)
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(p))
}

// SeverityBadge renders a defect severity.
func SeverityBadge(s constants.Severity) string {
	color := ColorMuted
	switch s {
	case constants.SeverityCritical:
		color = ColorError
	case constants.SeverityMajor:
		color = ColorWarning
	case constants.SeverityMinor, constants.SeverityTrivial:
	}
	return lipgloss.NewStyle().Foreground(color).Bold(s == constants.SeverityCritical).Render(string(s))
}

// titleCaser is shared because cases.Caser values are cheap but not free to build.
//
//nolint:gochecknoglobals // Stateless caser reused across calls
var titleCaser = cases.Title(language.English)

// Label turns an enum value into a human label:
// "status_change" → "Status Change", "InProgress" → "In Progress".
func Label[S ~string](s S) string {
	v := string(s)
	if v == "" {
		return ""
	}
	var b strings.Builder
	prev := rune(0)
	for i, r := range v {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return titleCaser.String(b.String())
}

// OutputStyles holds common output styles.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
}

// NewOutputStyles creates the common output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
	}
}

// CheckNoColor drops to the ASCII profile when color is unwanted.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// ApplyTheme tells lipgloss which side of every AdaptiveColor to use.
// The session theme wins over terminal background detection.
func ApplyTheme(theme constants.Theme) {
	lipgloss.SetHasDarkBackground(theme == constants.ThemeDark)
}

// HasColorSupport returns false when NO_COLOR is set (any value) or TERM=dumb.
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// ProgressBar renders pct (0..100) as a fixed-width bar.
func ProgressBar(pct, width int) string {
	pct = max(0, min(100, pct))
	if width <= 0 {
		width = 10
	}
	filled := pct * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if !HasColorSupport() {
		return bar
	}
	color := ColorPrimary
	if pct == 100 {
		color = ColorSuccess
	}
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

// truncate shortens s to width runes, ending with an ellipsis when cut.
func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}
