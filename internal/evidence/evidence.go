// Package evidence turns image files into the opaque data-URL references
// stored on steps, and decodes them again for AI calls.
package evidence

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/mrz1836/testmo/internal/errors"
)

// ImageTypes are accepted as step evidence.
var ImageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// MediaTypes are accepted as generator input: images plus process documents.
var MediaTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "application/pdf"}

// ReadFile reads path and encodes it as a data URL.
func ReadFile(path string, maxBytes int64, allowed []string) (string, error) {
	f, err := os.Open(path) //#nosec G304 -- user-selected evidence file
	if err != nil {
		return "", fmt.Errorf("failed to open evidence: %w", err)
	}
	defer func() { _ = f.Close() }()

	// Read one byte past the limit to detect oversize files without trusting Stat.
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read evidence: %w", err)
	}
	return Encode(data, maxBytes, allowed)
}

// Encode checks size and sniffed content type and returns a data URL.
func Encode(data []byte, maxBytes int64, allowed []string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("evidence %w", errors.ErrEmptyValue)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", errors.ErrEvidenceTooLarge, maxBytes)
	}
	mime := sniff(data)
	if !slices.Contains(allowed, mime) {
		return "", fmt.Errorf("%w: %s", errors.ErrUnsupportedEvidence, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Decode splits a data URL into its MIME type and payload.
func Decode(ref string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URL", errors.ErrUnsupportedEvidence)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: malformed data URL", errors.ErrUnsupportedEvidence)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: data URL is not base64", errors.ErrUnsupportedEvidence)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", errors.ErrUnsupportedEvidence, err)
	}
	if mime == "" {
		mime = sniff(data)
	}
	return mime, data, nil
}

// Size returns the decoded payload size of a data URL, or 0 if it is not one.
func Size(ref string) int {
	_, payload, ok := strings.Cut(ref, ",")
	if !ok {
		return 0
	}
	pad := len(payload) - len(strings.TrimRight(payload, "="))
	return base64.StdEncoding.DecodedLen(len(payload)) - pad
}

func sniff(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return mime
}
