// Package tasker runs the long lived tasks of a process until a shutdown signal arrives.
package tasker

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Task runs until it finishes or its context is done.
type Task func(ctx context.Context) error

func (t Task) Run(ctx context.Context) error { return t(ctx) }

var GracefulShutdownTimeout = 30 * time.Second

// WithShutdown runs start, and once the context is done,
// it calls stop with a fresh context bound by GracefulShutdownTimeout.
func WithShutdown(start, stop Task) Task {
	return func(ctx context.Context) error {
		serveErrChan := make(chan error, 1)
		go func() { serveErrChan <- start(ctx) }()
		select {
		case <-ctx.Done():
		case err := <-serveErrChan:
			if err != nil {
				return err
			}
		}
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), GracefulShutdownTimeout)
		defer cancel()
		return stop(stopCtx)
	}
}

func IgnoreError(task Task, errsToIgnore ...error) Task {
	return func(ctx context.Context) error {
		err := task(ctx)
		for _, ignore := range errsToIgnore {
			if errors.Is(err, ignore) {
				return nil
			}
		}
		return err
	}
}

// HTTPServerTask serves srv, and shuts it down gracefully when the context is done.
func HTTPServerTask(srv *http.Server) Task {
	return WithShutdown(
		func(ctx context.Context) error {
			if srv.BaseContext == nil {
				baseContext := context.WithoutCancel(ctx)
				srv.BaseContext = func(net.Listener) context.Context { return baseContext }
			}
			return IgnoreError(func(context.Context) error {
				return srv.ListenAndServe()
			}, http.ErrServerClosed).Run(ctx)
		},
		srv.Shutdown,
	)
}

// WithSignalNotify cancels the task context on the first shutdown signal.
// A task that returns because of that cancellation is considered successful.
func WithSignalNotify(task Task, shutdownSignals ...os.Signal) Task {
	if len(shutdownSignals) == 0 {
		shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return func(ctx context.Context) error {
		ctx, cancel := signal.NotifyContext(ctx, shutdownSignals...)
		defer cancel()
		err := task(ctx)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	}
}

// Main runs the task until it finishes or the process receives a shutdown signal.
func Main(ctx context.Context, task Task) error {
	return WithSignalNotify(task)(ctx)
}
