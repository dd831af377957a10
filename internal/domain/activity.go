package domain

import (
	"time"

	"github.com/mrz1836/testmo/internal/constants"
)

// ActivityEntry is one audit record of a user action.
type ActivityEntry struct {
	ID     string                   `json:"id"`
	User   string                   `json:"user"`
	Action constants.ActivityAction `json:"action"`

	// Target is a case id or a bulk label such as "Bulk Delete".
	Target    string    `json:"target"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
