package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// spinnerFrames are the animation frames for the spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"} //nolint:gochecknoglobals // Package-level constant for spinner animation

// SpinnerInterval is the update interval for spinner animation.
const SpinnerInterval = 100 * time.Millisecond

// ElapsedTimeThreshold is the duration after which elapsed time is shown.
// AI retries back off for up to a minute, so the tester sees the wait.
const ElapsedTimeThreshold = 5 * time.Second

// TerminalSpinner animates a single status line while a long call runs.
type TerminalSpinner struct {
	mu      sync.Mutex
	w       io.Writer
	styles  *OutputStyles
	message string
	started time.Time
	done    chan struct{}
	running bool
}

// NewTerminalSpinner creates a spinner that writes to w.
func NewTerminalSpinner(w io.Writer) *TerminalSpinner {
	return &TerminalSpinner{w: w, styles: NewOutputStyles()}
}

// Start begins the animation. Calling Start on a running spinner only updates the message.
func (s *TerminalSpinner) Start(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.message = message
	if s.running {
		return
	}
	s.started = time.Now()
	s.running = true
	s.done = make(chan struct{})
	go s.animate(ctx, s.done)
}

// UpdateMessage changes the message without restarting the clock.
func (s *TerminalSpinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and clears the line. It is safe to call twice.
func (s *TerminalSpinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	_, _ = fmt.Fprint(s.w, "\r\033[K")
	s.mu.Unlock()
}

func (s *TerminalSpinner) animate(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(SpinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-done:
			return
		case <-ctx.Done():
			s.Stop()
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.running {
				s.mu.Unlock()
				return
			}
			msg := s.message
			if elapsed := time.Since(s.started); elapsed > ElapsedTimeThreshold {
				msg = fmt.Sprintf("%s (%s)", msg, elapsed.Truncate(time.Second))
			}
			msg = truncate(msg, terminalWidth()-4)
			_, _ = fmt.Fprintf(s.w, "\r\033[K%s %s", s.styles.Info.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
			s.mu.Unlock()
		}
	}
}

// terminalWidth returns the stdout width, or 80 when it cannot be determined.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // G115: file descriptors fit in int
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// SpinnerAdapter binds a TerminalSpinner to a cancelable context.
type SpinnerAdapter struct {
	spinner *TerminalSpinner
	cancel  context.CancelFunc
}

// NewSpinnerAdapter starts a spinner on w. When w is not a terminal the
// spinner stays silent so redirected output carries no control sequences.
func NewSpinnerAdapter(ctx context.Context, w io.Writer, msg string) Spinner {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: file descriptors fit in int
		return &NoopSpinner{}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := NewTerminalSpinner(w)
	s.Start(ctx, msg)
	return &SpinnerAdapter{spinner: s, cancel: cancel}
}

// Update changes the spinner message.
func (a *SpinnerAdapter) Update(msg string) { a.spinner.UpdateMessage(msg) }

// Stop terminates the spinner.
func (a *SpinnerAdapter) Stop() {
	a.cancel()
	a.spinner.Stop()
}

// NoopSpinner does nothing.
type NoopSpinner struct{}

// Update is a no-op.
func (*NoopSpinner) Update(_ string) {}

// Stop is a no-op.
func (*NoopSpinner) Stop() {}
