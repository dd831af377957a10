package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

// Outcome labels used for the AI call metric.
const (
	outcomeOK        = "ok"
	outcomeTransient = "transient"
	outcomeAuth      = "auth"
	outcomeMalformed = "malformed"
	outcomeEmpty     = "empty"
	outcomeRequest   = "request"
	outcomeCanceled  = "canceled"
	outcomeExhausted = "exhausted"
	outcomeOther     = "error"
)

// apiError is the error envelope returned by the Gemini REST API.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// classifyStatus maps a non-200 response to one of the AI sentinels.
// Rate limits and overload are transient; so is any body reporting an
// exhausted quota, whatever the status code.
func classifyStatus(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
		if envelope.Error.Status != "" {
			msg = envelope.Error.Status + ": " + msg
		}
	}
	msg = truncateMessage(msg, maxErrorMessageBytes)

	switch {
	case code == http.StatusTooManyRequests, code == http.StatusServiceUnavailable,
		strings.Contains(msg, "RESOURCE_EXHAUSTED"), strings.Contains(strings.ToLower(msg), "quota"):
		return fmt.Errorf("%w: status %d: %s", testmoerrors.ErrAITransient, code, msg)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", testmoerrors.ErrAIAuth, code, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", testmoerrors.ErrAIRequest, code, msg)
	}
}

// maxErrorMessageBytes caps how much of an API error body ends up in an error.
const maxErrorMessageBytes = 300

// truncateMessage cuts msg to at most limit bytes on a rune boundary.
func truncateMessage(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + "..."
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, testmoerrors.ErrAITransient)
}

// outcomeOf classifies err for metrics.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	case errors.Is(err, testmoerrors.ErrMaxRetriesExceeded):
		return outcomeExhausted
	case errors.Is(err, testmoerrors.ErrAITransient):
		return outcomeTransient
	case errors.Is(err, testmoerrors.ErrAIAuth):
		return outcomeAuth
	case errors.Is(err, testmoerrors.ErrAIMalformedResponse):
		return outcomeMalformed
	case errors.Is(err, testmoerrors.ErrAIEmptyResponse):
		return outcomeEmpty
	case errors.Is(err, testmoerrors.ErrAIRequest):
		return outcomeRequest
	default:
		return outcomeOther
	}
}
