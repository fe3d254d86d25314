package connection

import (
	"context"
	"sync"
	"time"
)

// DefaultReconnectDelay is the pause between a lost connection and the
// next attempt.
const DefaultReconnectDelay = 10 * time.Second

// Delay is a flat reconnection delay. Every attempt waits the same
// duration; Delay only counts how many attempts were made since the last
// successful connection.
type Delay struct {
	mu       sync.Mutex
	interval time.Duration
	attempts int
}

// NewDelay creates a delay of interval. Non-positive values fall back to
// DefaultReconnectDelay.
func NewDelay(interval time.Duration) *Delay {
	if interval <= 0 {
		interval = DefaultReconnectDelay
	}
	return &Delay{interval: interval}
}

// Next returns the delay before the next attempt and counts the attempt.
func (d *Delay) Next() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts++
	return d.interval
}

// Wait blocks for the next delay. It returns false if ctx ends first.
func (d *Delay) Wait(ctx context.Context) bool {
	t := time.NewTimer(d.Next())
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Reset clears the attempt counter.
// Call this after a successful connection.
func (d *Delay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts = 0
}

// Attempts returns the number of delays taken since the last reset.
func (d *Delay) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

// Interval returns the configured delay.
func (d *Delay) Interval() time.Duration {
	return d.interval
}
