package session

import (
	"context"
	"errors"
	"sync"
)

// ErrAbandoned is reported by a future whose result was released because an
// earlier Await gave up on it.
var ErrAbandoned = errors.New("result released after the wait was abandoned")

// Future is the pending result of an asynchronous execution.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error

	mu        sync.Mutex
	release   func(T)
	abandoned bool
}

// Go runs fn on a new goroutine and returns its future.
func Go[T any](fn func() (T, error)) *Future[T] {
	return GoWithRelease(fn, nil)
}

// GoWithRelease is Go for results that hold resources. When an Await returns
// early because its context ended, release is called on the result once it
// arrives and later Awaits report ErrAbandoned.
func GoWithRelease[T any](fn func() (T, error), release func(T)) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), release: release}
	go func() {
		v, err := fn()

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.abandoned && err == nil {
			f.release(v)
			var zero T
			v, err = zero, ErrAbandoned
		}
		f.value, f.err = v, err
		close(f.done)
	}()
	return f
}

// Failed returns a future that has already completed with err.
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done. Abandoning the
// wait does not cancel the execution.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	if f.release != nil {
		f.abandoned = true
	}
	var zero T
	return zero, ctx.Err()
}
