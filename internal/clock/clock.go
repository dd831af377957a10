// Package clock provides an abstraction for time operations to improve testability.
// Case timestamps, activity entries and export file names all read time through
// a Clock so tests can pin it.
package clock

import (
	"sync"
	"time"
)

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time in UTC.
type RealClock struct{}

// Now returns the current UTC time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock that always returns the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// Stepping is a Clock that advances by Step on every call, starting at Start.
// It gives every mutation in a test a distinct, ordered timestamp.
type Stepping struct {
	mu    sync.Mutex
	next  time.Time
	step  time.Duration
	calls int
}

// NewStepping returns a Stepping clock.
func NewStepping(start time.Time, step time.Duration) *Stepping {
	return &Stepping{next: start, step: step}
}

// Now returns the current instant and advances the clock.
func (s *Stepping) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.next
	s.next = s.next.Add(s.step)
	s.calls++
	return t
}

// Calls returns how many times Now was called.
func (s *Stepping) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

var (
	_ Clock = RealClock{}
	_ Clock = Fixed{}
	_ Clock = (*Stepping)(nil)
)
