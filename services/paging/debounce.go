package paging

import (
	"sync"
	"time"
)

// Debouncer runs only the last function triggered within a quiet period.
// It suppresses calls; it does not cancel work that already started.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending func()
	running sync.WaitGroup
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the delay, replacing any pending function.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timer != t {
			d.mu.Unlock()
			return
		}
		run := d.pending
		d.timer, d.pending = nil, nil
		d.running.Add(1)
		d.mu.Unlock()
		defer d.running.Done()
		run()
	})
	d.timer = t
}

// Flush runs the pending function now instead of waiting out the delay, and
// waits for one the timer already started.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	run := d.pending
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer, d.pending = nil, nil
	d.mu.Unlock()
	if run != nil {
		run()
	}
	d.running.Wait()
}

// Stop drops the pending function, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer, d.pending = nil, nil
}
