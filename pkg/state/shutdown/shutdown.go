package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"messageboard/pkg/state/logger"
)

// SetupSignalHandler installs handlers for SIGINT/SIGTERM and SIGPIPE and
// returns a context that is cancelled when any of them arrives.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigc:
			logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigc)
	}()

	// dump goroutine stacks on SIGPIPE
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)
	go func() {
		select {
		case s := <-sigpipe:
			logger.Info("signal_received", "signal", s.String(), "msg", "SIGPIPE - dumping goroutine stacks")
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			logger.Info("goroutine_stack_dump", "dump", string(buf[:n]))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigpipe)
	}()

	return ctx, cancel
}

// Abort logs a fatal startup error, flushes logs and exits.
func Abort(context string, err error) {
	if err != nil {
		logger.Error("fatal", "context", context, "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", context, err)
	} else {
		logger.Error("fatal", "context", context)
		fmt.Fprintln(os.Stderr, context)
	}
	logger.Sync()
	os.Exit(1)
}
