// Package debounce coalesces a burst of triggers into a single callback after
// a quiet period. Flush and Cancel give callers (and tests) deterministic
// control over the pending timer.
package debounce

import (
	"sync"
	"time"
)

// Debouncer owns one timer. Trigger replaces the pending callback, so a
// rapid series of triggers runs only the most recent one.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	pending  func()
}

// New creates a debouncer with the given quiet interval. A non-positive
// interval makes Trigger run callbacks immediately.
func New(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules fn to run after the quiet interval, replacing any
// callback still pending from an earlier trigger.
func (d *Debouncer) Trigger(fn func()) {
	if d.interval <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	d.pending = fn
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
	d.mu.Unlock()
}

// Flush runs the pending callback immediately, if there is one.
func (d *Debouncer) Flush() {
	d.fire()
}

// Cancel drops the pending callback without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.mu.Unlock()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}
