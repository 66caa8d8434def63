// Package sigctx ties a context to the process shutdown signals.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Shutdown is the signal set used when NotifyContext gets none.
var Shutdown = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// SignalError is the cancellation cause of a context stopped by a signal.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "received signal " + e.Signal.String()
}

// NotifyContext returns a copy of parent that is done on the first of
// signals, or when stop is called. context.Cause of the returned context
// is a *SignalError after a signal.
func NotifyContext(
	parent context.Context, signals ...os.Signal,
) (ctx context.Context, stop context.CancelFunc) {
	if len(signals) == 0 {
		signals = Shutdown
	}

	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	go func() {
		select {
		case sig := <-ch:
			cancel(&SignalError{Signal: sig})
		case <-ctx.Done():
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(ch)
			cancel(nil)
		})
	}
}
