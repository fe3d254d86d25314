package state

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the quiet period used when none is configured.
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer coalesces bursts of triggers into a single delayed flush.
//
// The first Trigger after a quiet period schedules flush after the window.
// Triggers that arrive while a flush is pending are absorbed. When the
// timer fires flush runs once and reads whatever state is current at that
// moment; the pending marker is cleared after flush returns. A trigger
// absorbed while flush was already running re-arms the timer, so no change
// goes unreported.
type Debouncer struct {
	window time.Duration
	flush  func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	running bool
	dirty   bool

	// flushMu is held while flush runs so Cancel can wait it out.
	flushMu sync.Mutex
}

// NewDebouncer creates a debouncer that calls flush after window.
func NewDebouncer(window time.Duration, flush func()) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window, flush: flush}
}

// Window returns the debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Trigger schedules a flush unless one is already pending. It reports
// whether a new flush was scheduled.
func (d *Debouncer) Trigger() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		if d.running {
			d.dirty = true
		}
		return false
	}
	d.schedule()
	return true
}

// schedule arms a fresh timer. Callers hold d.mu.
func (d *Debouncer) schedule() {
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// Pending reports whether a flush is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel drops a pending flush. When Cancel returns no flush scheduled
// before the call is running or will run. Must not be called from flush.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.dirty = false
	d.mu.Unlock()

	// Wait for a flush that already passed the generation check.
	d.flushMu.Lock()
	//nolint:staticcheck // empty critical section used as a barrier
	d.flushMu.Unlock()
}

func (d *Debouncer) fire(gen uint64) {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.flush()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	if gen != d.gen {
		// Cancelled while flushing.
		return
	}
	d.timer = nil
	if d.dirty {
		d.dirty = false
		d.schedule()
	}
}
