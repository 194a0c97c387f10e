// Package debounce delays a call until its trigger has been quiet for a
// fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn with the most recent argument once Trigger has not been
// called for the configured wait. Every Trigger restarts the wait and
// replaces the pending argument. Calls to fn never overlap, and Stop and
// Flush return only after a call already in progress has finished, so fn
// must not call Stop or Flush itself.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	// callMu is held for the whole of every fn call.
	callMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending T
}

// New returns a Debouncer that calls fn after wait of inactivity.
func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Trigger schedules fn(v), cancelling any call still pending.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = v
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.callMu.Lock()
	defer d.callMu.Unlock()

	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Stop cancels the pending call and reports whether there was one.
func (d *Debouncer[T]) Stop() bool {
	d.callMu.Lock()
	defer d.callMu.Unlock()

	_, ok := d.take()
	return ok
}

// Flush runs the pending call right away and reports whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.callMu.Lock()
	defer d.callMu.Unlock()

	v, ok := d.take()
	if ok {
		d.fn(v)
	}
	return ok
}

func (d *Debouncer[T]) take() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	d.gen++
	if d.timer == nil {
		return zero, false
	}
	d.timer.Stop()
	d.timer = nil
	v := d.pending
	d.pending = zero
	return v, true
}
