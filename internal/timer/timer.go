// Package timer implements the per-section countdown. A Timer fires its
// expiry callback at most once and never ticks after Stop.
package timer

import (
	"sync"
	"time"
)

// Step is the countdown resolution.
const Step = time.Second

type Timer struct {
	mu        sync.Mutex
	remaining int
	fired     bool
	stopped   bool

	stop     chan struct{}
	onExpire func()
}

// Start begins a countdown of minutes*60 seconds. It returns nil for
// minutes <= 0: untimed sections have no timer at all.
// onExpire runs on the timer goroutine.
func Start(minutes int, clock Clock, onExpire func()) *Timer {
	if minutes <= 0 {
		return nil
	}
	if clock == nil {
		clock = RealClock
	}
	t := &Timer{
		remaining: minutes * 60,
		stop:      make(chan struct{}),
		onExpire:  onExpire,
	}
	tk := clock.NewTicker(Step)
	go t.run(tk)
	return t
}

func (t *Timer) run(tk Ticker) {
	defer tk.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-tk.C():
			if !t.tick() {
				continue
			}
			if t.onExpire != nil {
				t.onExpire()
			}
			return
		}
	}
}

// tick decrements and reports whether this tick is the expiry.
func (t *Timer) tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	if t.remaining > 0 {
		t.remaining--
	}
	if t.remaining == 0 {
		t.fired = true
		return true
	}
	return false
}

// Remaining returns seconds left. Safe on a nil Timer (returns -1).
func (t *Timer) Remaining() int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

func (t *Timer) Expired() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Stop cancels the countdown. It does not wait for the goroutine; an expiry
// already in flight is for the owner to discard. Safe to call repeatedly and
// on a nil Timer.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.stop)
}
