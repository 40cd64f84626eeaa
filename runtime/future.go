// Package runtime implements the Task Runtime of §4.2: a pair of
// priority-separated worker pools executing user tasks and delivering their
// results through generic futures, generalized to arbitrary result types.
package runtime

import (
	"context"
	"sync"

	"github.com/madwave-project/madwave/internal/debug"
)

// Future is the result of a task submitted to a Pool. It is safe to call Get
// and Wait from multiple goroutines; the task itself runs exactly once.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	val   T
	err   error
	runFn func() (T, error)
}

func newFuture[T any](fn func() (T, error)) *Future[T] {
	return &Future[T]{done: make(chan struct{}), runFn: fn}
}

func (f *Future[T]) run() {
	f.once.Do(func() {
		f.val, f.err = f.runFn()
		close(f.done)
	})
}

// Wait blocks until the task has completed or ctx is done, whichever first.
func (f *Future[T]) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get blocks unconditionally for the result, for call sites that already
// know the task cannot outlive the process.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// Ready reports whether the task has completed without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Resolved constructs an already-completed future, used by callers that
// short-circuit a task (e.g. a cache hit) but still need to hand back a
// Future[T] to match a generic interface.
func Resolved[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val, err: err}
	close(f.done)
	return f
}

// MustGet panics via debug.Assert if the future completed with an error;
// used in internal call sites that have already established the task cannot
// fail (e.g. pure in-memory reductions).
func MustGet[T any](f *Future[T]) T {
	v, err := f.Get()
	debug.AssertNoErr(err)
	return v
}
