// Package fanin joins an a-priori known number of independent asynchronous operations into a single completion signal.
//
// A Handle is started with the total number of expected completions.
// Its callback is invoked exactly once:
// either with nil after every completion arrived successfully,
// or with the first reported error as soon as it is observed.
// Completions that arrive after the signal fired are counted but otherwise ignored.
// In-flight operations are never cancelled.
package fanin

import (
	"context"
	"sync/atomic"
)

type Handle struct {
	remaining atomic.Int64
	firstErr  atomic.Pointer[errBox]
	fired     atomic.Bool
	callback  func(error)
}

type errBox struct{ err error }

// Start creates a Handle that expects total completions.
// When total is zero, the callback is invoked with nil before Start returns.
func Start(total int, callback func(error)) *Handle {
	h := &Handle{callback: callback}
	h.remaining.Store(int64(total))
	if total <= 0 {
		h.fire(nil)
	}
	return h
}

// Complete reports the result of one sub-operation.
// It is safe to call from multiple goroutines.
// Reports beyond the expected total are ignored.
func (h *Handle) Complete(err error) {
	if h.remaining.Load() <= 0 {
		return
	}
	if err != nil && h.firstErr.CompareAndSwap(nil, &errBox{err: err}) {
		h.fire(err)
	}
	if n := h.remaining.Add(-1); n == 0 && h.firstErr.Load() == nil {
		h.fire(nil)
	}
}

// Err returns the first error reported to the Handle, if any.
func (h *Handle) Err() error {
	if box := h.firstErr.Load(); box != nil {
		return box.err
	}
	return nil
}

// Remaining returns the number of completions not yet reported.
func (h *Handle) Remaining() int {
	n := h.remaining.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Done reports whether the callback has already been invoked.
func (h *Handle) Done() bool {
	return h.fired.Load()
}

func (h *Handle) fire(err error) {
	if !h.fired.CompareAndSwap(false, true) {
		return
	}
	if h.callback != nil {
		h.callback(err)
	}
}

// Wait runs fn for every index in [0, total) on its own goroutine,
// and blocks until the joined signal arrives.
// When ctx is done first, Wait returns ctx.Err(), while the started goroutines keep running.
func Wait(ctx context.Context, total int, fn func(i int) error) error {
	done := make(chan error, 1)
	h := Start(total, func(err error) { done <- err })
	for i := 0; i < total; i++ {
		go func(i int) { h.Complete(fn(i)) }(i)
	}
	if ctx == nil {
		return <-done
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
