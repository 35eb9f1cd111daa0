// Package oneshot provides a single-use channel that carries at most one value
// from a producer to a consumer.
//
// A [Channel] starts [Empty] and leaves that state exactly once, either because a
// producer called [Channel.Publish] ([Delivered]) or because the consumer gave up
// with [Channel.Abandon] ([Abandoned]). Every later transition attempt is a no-op.
package oneshot

import (
	"context"
	"errors"
	"sync/atomic"
)

var (
	ErrAbandoned = errors.New("oneshot: channel abandoned")
	ErrTimedOut  = errors.New("oneshot: wait timed out")
)

// State is the lifecycle position of a [Channel].
type State int32

const (
	Empty State = iota
	Delivered
	Abandoned
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Delivered:
		return "delivered"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Channel is a write-once mailbox. It is safe for concurrent use by any number of
// producers; only the first transition out of [Empty] is observed.
type Channel[T any] struct {
	state atomic.Int32
	value T
	done  chan struct{}
}

// New creates an empty [Channel].
func New[T any]() *Channel[T] {
	return &Channel[T]{done: make(chan struct{})}
}

// Publish stores v if the channel is still empty and wakes the waiting consumer.
//
// It reports whether this call performed the transition. A false return means
// another publish or an abandon got there first and v was dropped.
func (c *Channel[T]) Publish(v T) bool {
	if !c.state.CompareAndSwap(int32(Empty), int32(Delivered)) {
		return false
	}
	c.value = v
	close(c.done)
	return true
}

// Abandon marks the channel as given up by the consumer. It reports whether this
// call performed the transition; false means a value was already delivered.
func (c *Channel[T]) Abandon() bool {
	if !c.state.CompareAndSwap(int32(Empty), int32(Abandoned)) {
		return false
	}
	close(c.done)
	return true
}

// Done returns a channel that is closed once the state leaves [Empty].
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}

// State returns the current state.
//
// A producer that has won the transition may still be storing its value, so
// callers that need the value should use [Channel.Wait].
func (c *Channel[T]) State() State {
	return State(c.state.Load())
}

// Wait suspends until the channel leaves [Empty] or ctx is done.
//
// Once delivered, Wait returns the stored value on every call without suspending.
// A delivered value takes precedence over a context that expired at the same time.
// A context deadline is reported as [ErrTimedOut]; any other cancellation returns
// ctx.Err().
func (c *Channel[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.result()
	default:
	}

	select {
	case <-c.done:
		return c.result()
	case <-ctx.Done():
		select {
		case <-c.done:
			return c.result()
		default:
		}

		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimedOut
		}
		return zero, ctx.Err()
	}
}

func (c *Channel[T]) result() (T, error) {
	if c.State() == Abandoned {
		var zero T
		return zero, ErrAbandoned
	}
	return c.value, nil
}
