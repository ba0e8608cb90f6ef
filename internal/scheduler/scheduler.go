// Package scheduler owns every periodic and one-shot timer of an exam
// attempt so that a single Stop tears them all down.
package scheduler

import (
	"sync"
	"time"
)

// Handle cancels one scheduled callback.
type Handle interface {
	Cancel()
}

// Scheduler registers callbacks. After Stop returns no callback starts.
type Scheduler interface {
	Every(d time.Duration, fn func()) Handle
	After(d time.Duration, fn func()) Handle
	Stop()
}

// Timers is the wall-clock Scheduler.
type Timers struct {
	mu      sync.Mutex
	stopped bool
	handles map[*timerHandle]struct{}
}

func New() *Timers {
	return &Timers{handles: make(map[*timerHandle]struct{})}
}

type timerHandle struct {
	owner    *Timers
	canceled bool
	done     chan struct{}
	timer    *time.Timer
}

func (h *timerHandle) Cancel() {
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	h.cancelLocked()
}

func (h *timerHandle) cancelLocked() {
	if h.canceled {
		return
	}
	h.canceled = true
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.done != nil {
		close(h.done)
	}
	delete(h.owner.handles, h)
}

// fire runs fn unless the handle or the scheduler is gone. The check and the
// decision happen under the lock, so Stop wins every race against a tick.
func (t *Timers) fire(h *timerHandle, fn func(), once bool) {
	t.mu.Lock()
	if t.stopped || h.canceled {
		t.mu.Unlock()
		return
	}
	if once {
		h.canceled = true
		delete(t.handles, h)
	}
	t.mu.Unlock()
	fn()
}

func (t *Timers) register(h *timerHandle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		h.canceled = true
		return false
	}
	t.handles[h] = struct{}{}
	return true
}

func (t *Timers) Every(d time.Duration, fn func()) Handle {
	h := &timerHandle{owner: t, done: make(chan struct{})}
	if !t.register(h) {
		return h
	}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				t.fire(h, fn, false)
			}
		}
	}()
	return h
}

func (t *Timers) After(d time.Duration, fn func()) Handle {
	h := &timerHandle{owner: t}
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		h.canceled = true
		return h
	}
	t.handles[h] = struct{}{}
	h.timer = time.AfterFunc(d, func() { t.fire(h, fn, true) })
	t.mu.Unlock()
	return h
}

// Stop cancels every handle. It may be called from inside a callback.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for h := range t.handles {
		h.cancelLocked()
	}
}

// Pending counts live handles.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}
