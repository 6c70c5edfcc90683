// Package async provides the single completion primitive used by the
// executor. Resolvers may return plain values, errors or Tasks; everything is
// normalized into a Task before completion so sync and async results travel
// the same path.
package async

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Task is a one-shot result that becomes available exactly once.
type Task struct {
	done  chan struct{}
	value any
	err   error
}

// PanicError is the error a Task settles with when its function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Go runs fn on its own goroutine and returns a Task that settles with its
// result. A panic inside fn settles the Task with a *PanicError.
func Go(fn func() (any, error)) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.value, t.err = nil, &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		t.value, t.err = fn()
	}()
	return t
}

// Resolved returns an already settled Task holding v.
func Resolved(v any) *Task {
	t := &Task{done: make(chan struct{}), value: v}
	close(t.done)
	return t
}

// Rejected returns an already settled Task holding err.
func Rejected(err error) *Task {
	t := &Task{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

// From normalizes a resolver's return pair. A *Task in v is passed through
// unless err is set.
func From(v any, err error) *Task {
	if err != nil {
		return Rejected(err)
	}
	if t, ok := v.(*Task); ok && t != nil {
		return t
	}
	return Resolved(v)
}

// Done is closed once the Task has settled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Await blocks until the Task settles or ctx is done. Cancelling ctx stops
// the wait only; the underlying work keeps running.
//
// A settled value that is itself a *Task is awaited in turn.
func (t *Task) Await(ctx context.Context) (any, error) {
	for {
		select {
		case <-t.done:
		default:
			select {
			case <-t.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if t.err != nil {
			return nil, t.err
		}
		next, ok := t.value.(*Task)
		if !ok || next == nil {
			return t.value, nil
		}
		t = next
	}
}
