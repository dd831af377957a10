package domain

import (
	"strings"

	"github.com/mrz1836/testmo/internal/constants"
)

// User is an entry of the local user directory.
type User struct {
	Username string         `json:"username"`
	Name     string         `json:"name"`
	Role     constants.Role `json:"role"`
	Initials string         `json:"initials,omitempty"`
	Color    string         `json:"color,omitempty"`

	// PasswordHash is a bcrypt hash. It is never shown or logged.
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Public returns a copy without credentials.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// InitialsFor derives up to two upper-case initials from a display name.
func InitialsFor(name string) string {
	var initials []rune
	for _, part := range strings.Fields(name) {
		initials = append(initials, []rune(strings.ToUpper(part))[0])
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}

// ProjectSettings describe the system under test. They are passed to AI calls
// as grounding context.
type ProjectSettings struct {
	ProjectName    string `json:"projectName"`
	Description    string `json:"description"`
	Systems        string `json:"systems"`
	URLs           string `json:"urls"`
	ReleaseVersion string `json:"releaseVersion"`
}

// IsZero reports whether no setting has been filled in.
func (p ProjectSettings) IsZero() bool {
	return p == ProjectSettings{}
}

// Session is the persisted part of the session context.
type Session struct {
	Username string          `json:"username,omitempty"`
	Theme    constants.Theme `json:"theme,omitempty"`
}

// DefectReport is an AI-drafted bug report for a failed step.
type DefectReport struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	StepsToReproduce []string           `json:"stepsToReproduce"`
	ExpectedVsActual string             `json:"expectedVsActual"`
	Severity         constants.Severity `json:"severity"`
	Environment      string             `json:"environment,omitempty"`
	Category         string             `json:"category,omitempty"`
}
