package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

// cleanJSON strips a surrounding markdown code fence, which models sometimes
// add despite the JSON response type.
func cleanJSON(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decode parses a model answer into T.
func decode[T any](text string) (T, error) {
	var out T
	clean := cleanJSON(text)
	if clean == "" {
		return out, fmt.Errorf("%w: empty body", testmoerrors.ErrAIEmptyResponse)
	}
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return out, fmt.Errorf("%w: failed to parse json response (%d bytes), the answer may have been truncated: %w",
			testmoerrors.ErrAIMalformedResponse, len(clean), err)
	}
	return out, nil
}

// flexInt accepts a JSON number or a numeric string. Anything else decodes to 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil //nolint:nilerr // unparseable numbers default to zero
	}
	*n = flexInt(math.Round(f))
	return nil
}

// listItemPrefix matches list markers such as "1.", "2)", "-" or "*".
var listItemPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)

// flexList accepts a JSON array of strings or a single string holding a
// numbered or bulleted list, one item per line.
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = compact(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = listItemPrefix.ReplaceAllString(line, "")
	}
	*l = compact(lines)
	return nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
