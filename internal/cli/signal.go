package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// exitInterrupted is the conventional status for a process stopped by SIGINT.
const exitInterrupted = 130

// SignalContext is cancelled by the first SIGINT or SIGTERM and remembers which one arrived.
// A second signal while shutdown is still running calls Force, which exits by default.
type SignalContext struct {
	context.Context

	// Cancel stops the context and the signal watcher. Safe to call more than once.
	Cancel func()

	// Force runs on a second signal.
	Force func(os.Signal)

	mu     sync.Mutex
	sigVal os.Signal
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
func NewSignalContext(parent context.Context) *SignalContext {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return watchSignals(parent, ch, func() { signal.Stop(ch) })
}

func watchSignals(parent context.Context, ch <-chan os.Signal, release func()) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	var once sync.Once

	sc := &SignalContext{
		Context: ctx,
		Force:   func(os.Signal) { os.Exit(exitInterrupted) },
	}
	sc.Cancel = func() {
		cancel()
		once.Do(func() { close(done) })
	}

	go func() {
		defer release()
		select {
		case sig := <-ch:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			cancel()
		case <-ctx.Done():
			return
		}
		select {
		case sig := <-ch:
			sc.Force(sig)
		case <-done:
		}
	}()

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// isInterrupted reports errors that only mean the user asked to stop.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}
