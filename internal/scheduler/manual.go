package scheduler

import (
	"sync"
	"time"
)

// Manual is a virtual-clock Scheduler. Callbacks run synchronously inside
// Advance, in due-time order, so timer-driven code can be tested without
// sleeping.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	stopped bool
	timers  []*manualTimer
}

func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	owner    *Manual
	at       time.Duration
	period   time.Duration
	seq      int
	fn       func()
	canceled bool
}

func (m *manualTimer) Cancel() {
	m.owner.mu.Lock()
	m.canceled = true
	m.owner.mu.Unlock()
}

func (m *Manual) add(d, period time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, at: m.now + d, period: period, seq: m.seq, fn: fn}
	if m.stopped {
		t.canceled = true
		return t
	}
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) Every(d time.Duration, fn func()) Handle { return m.add(d, d, fn) }

func (m *Manual) After(d time.Duration, fn func()) Handle { return m.add(d, 0, fn) }

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	for _, t := range m.timers {
		t.canceled = true
	}
	m.timers = nil
}

// Advance moves the virtual clock forward by d, firing everything due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		if next.period > 0 {
			next.at += next.period
		} else {
			next.canceled = true
		}
		fn := next.fn
		m.mu.Unlock()
		fn()
	}
}

func (m *Manual) nextDueLocked(target time.Duration) *manualTimer {
	var next *manualTimer
	live := m.timers[:0]
	for _, t := range m.timers {
		if t.canceled {
			continue
		}
		live = append(live, t)
		if t.at > target {
			continue
		}
		if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
			next = t
		}
	}
	m.timers = live
	return next
}

// Now is the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending counts live timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.canceled {
			n++
		}
	}
	return n
}
