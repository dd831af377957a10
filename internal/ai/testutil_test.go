package ai

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// noSleep makes retry waits return immediately for the duration of the test.
func noSleep(t *testing.T) {
	t.Helper()
	orig := timeSleep
	timeSleep = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time)
		close(ch)
		return ch
	}
	t.Cleanup(func() { timeSleep = orig })
}

// fakeModel answers from a script, or from handler when set.
type fakeModel struct {
	mu       sync.Mutex
	script   []fakeAnswer
	handler  func(req Request) (string, error)
	requests []Request
}

type fakeAnswer struct {
	text string
	err  error
}

func (f *fakeModel) Generate(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.handler != nil {
		return f.handler(req)
	}
	if len(f.script) == 0 {
		return "", nil
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.text, next.err
}

func (f *fakeModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeModel) last() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// promptText joins the text parts of a request.
func promptText(req Request) string {
	var sb strings.Builder
	for _, p := range req.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

const validCaseJSON = `{
  "caseId": "US-1",
  "title": "US-1: Log in with valid credentials",
  "summary": "Checks the happy path login.",
  "tags": ["Channel:Web", "channel:web", "Login"],
  "meta": {"CHANNEL": "Web", "WEBSITE": "CH"},
  "priority": "High",
  "type": "smoke",
  "preconditions": ["You have an account", ""],
  "estimatedDurationMin": 10,
  "estimatedEffort": "S",
  "steps": [
    {"stepId": "s2", "sequence": 2, "description": "Click Login", "expectedResult": "Dashboard opens", "estimatedDurationMin": 2, "priority": "High"},
    {"stepId": "s1", "sequence": 1, "description": "Enter user 'max'", "expectedResult": "Field filled", "testData": "max / Secret1", "estimatedDurationMin": 1, "priority": "Medium"}
  ],
  "negativeFlows": [
    {"description": "Wrong password shows an error", "steps": [{"sequence": 1, "description": "Enter a wrong password", "expectedResult": "Error shown"}]}
  ]
}`
