package collection

import (
	"crypto/rand"
	"fmt"

	"github.com/mrz1836/testmo/internal/constants"
)

const (
	// idChars is the character set for case ids.
	idChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// idLength is the number of random characters after the prefix.
	idLength = 6
	// maxIDAttempts bounds the retries when a generated id collides.
	maxIDAttempts = 10
)

// GenerateID creates a case id: "TC-" followed by 6 random upper-case
// alphanumeric characters from crypto/rand.
func GenerateID() (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = idChars[buf[i]%byte(len(idChars))]
	}
	return constants.CaseIDPrefix + string(buf), nil
}
