package watch

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into one signal on C once the
// quiet window has passed without another trigger. C has capacity one, so a
// signal raised while the consumer is busy queues exactly one follow-up.
type debouncer struct {
	window time.Duration
	c      chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, c: make(chan struct{}, 1)}
}

// Trigger restarts the quiet window.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *debouncer) fire() {
	select {
	case d.c <- struct{}{}:
	default:
	}
}

// C delivers debounced signals.
func (d *debouncer) C() <-chan struct{} { return d.c }

// Stop cancels a pending signal.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
