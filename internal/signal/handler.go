// Package signal turns SIGINT and SIGTERM into context cancellation for the
// testmo process, so a runner session or an AI call stops cleanly and every
// result recorded so far stays saved.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitInterrupted is the conventional exit status after SIGINT (128 + 2).
const ExitInterrupted = 130

// Handler cancels its context on the first SIGINT or SIGTERM.
type Handler struct {
	ctx         context.Context //nolint:containedctx // the handler owns this context's lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	sigChan     chan os.Signal
	once        sync.Once
	stopOnce    sync.Once
}

// NewHandler starts listening for interrupts. Call Stop when done.
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		sigChan:     make(chan os.Signal, 1),
	}
	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()
	return h
}

// Context is canceled on interrupt or Stop.
func (h *Handler) Context() context.Context { return h.ctx }

// Interrupted is closed once a signal has arrived.
func (h *Handler) Interrupted() <-chan struct{} { return h.interrupted }

// WasInterrupted reports whether a signal has arrived.
func (h *Handler) WasInterrupted() bool {
	select {
	case <-h.interrupted:
		return true
	default:
		return false
	}
}

// ExitCode returns ExitInterrupted after an interrupt and code otherwise.
func (h *Handler) ExitCode(code int) int {
	if h.WasInterrupted() {
		return ExitInterrupted
	}
	return code
}

// Stop stops listening and cancels the context. It is safe to call twice.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
		close(h.done)
		h.cancel()
	})
}

func (h *Handler) handleSignal() {
	h.once.Do(func() {
		close(h.interrupted)
		h.cancel()
	})
}

// listen runs until Stop or parent cancellation. Later signals are drained
// and ignored.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case <-h.sigChan:
			h.handleSignal()
		}
	}
}
