// ABOUTME: Quiet-period debouncing and request generation tagging
// ABOUTME: Collapses bursts of input into one call and marks older requests stale

package debounce

import (
	"sync"
	"sync/atomic"
	"time"
)

// Gate hands out monotonically increasing generations. A result is current only
// when no newer generation has been issued since its request started.
type Gate struct {
	gen atomic.Uint64
}

// Next starts a new generation and returns it
func (g *Gate) Next() uint64 {
	return g.gen.Add(1)
}

// Current reports whether gen is still the newest generation
func (g *Gate) Current(gen uint64) bool {
	return g.gen.Load() == gen
}

// Debouncer delays fire until Trigger has not been called for the configured delay,
// then calls it once with the newest value.
type Debouncer[T any] struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gate  Gate
	fire  func(gen uint64, v T)
}

// New creates a Debouncer. fire runs on its own goroutine.
func New[T any](delay time.Duration, fire func(gen uint64, v T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fire: fire}
}

// Delay returns the quiet period
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Trigger records v as the newest input and restarts the quiet period
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gate.Next()
	d.timer = time.AfterFunc(d.delay, func() {
		// A timer that was stopped too late still sees a newer generation
		if d.gate.Current(gen) {
			d.fire(gen, v)
		}
	})
}

// Current reports whether gen is still the newest trigger. A fired call can use it
// to drop its result when more input arrived while it was in flight.
func (d *Debouncer[T]) Current(gen uint64) bool {
	return d.gate.Current(gen)
}

// Stop cancels any pending call
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gate.Next()
}
