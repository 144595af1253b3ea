package async

import (
	"context"
	"fmt"
	"sync"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

// Await blocks until the computation finished.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext is Await bounded by ctx. It returns ctx.Err() if ctx ends first;
// the computation itself keeps running.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// Done is closed once the result is available.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[U]) fail(err error) *Future[U] {
	f.err = err
	close(f.done)
	return f
}

func run[T any, U any](f *Future[U], ctx context.Context, param T, fn func(context.Context, T) (U, error)) {
	defer close(f.done)
	defer func() {
		if r := recover(); r != nil {
			f.err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		f.err = err
		return
	}
	f.result, f.err = fn(ctx, param)
}

// Queue runs submitted tasks one at a time on a single goroutine, in the
// order they were submitted. The worker starts with the first task.
// The zero value is ready to use.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	stopped chan struct{}
	started bool
	closed  bool
}

func (q *Queue) lazyInit() {
	if q.wake == nil {
		q.wake = make(chan struct{}, 1)
		q.stopped = make(chan struct{})
	}
}

// Submit appends fn(ctx, param) to q and returns immediately. Once q is
// closing the task does not run and the future completes with ErrQueueClosed.
func Submit[T any, U any](q *Queue, ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return f.fail(ErrQueueClosed)
	}
	q.lazyInit()
	q.pending = append(q.pending, func() { run(f, ctx, param, fn) })
	if !q.started {
		q.started = true
		go q.work()
	}
	q.signal()
	return f
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) work() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			if q.closed {
				close(q.stopped)
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			<-q.wake
			continue
		}
		task := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		task()
	}
}

// Close stops q from accepting tasks and waits until every queued task has
// run, or for ctx. Calling it again waits again.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.lazyInit()
	if !q.closed {
		q.closed = true
		if q.started {
			q.signal()
		} else {
			close(q.stopped)
		}
	}
	stopped := q.stopped
	q.mu.Unlock()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
