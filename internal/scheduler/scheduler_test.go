package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualOrdering(t *testing.T) {
	m := NewManual()
	var got []string
	m.Every(time.Second, func() { got = append(got, "tick") })
	m.After(2500*time.Millisecond, func() { got = append(got, "once") })

	m.Advance(3 * time.Second)

	want := []string{"tick", "tick", "once", "tick"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if m.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", m.Pending())
	}
}

func TestManualStopFromCallback(t *testing.T) {
	m := NewManual()
	n := 0
	m.Every(time.Second, func() {
		n++
		if n == 2 {
			m.Stop()
		}
	})
	m.Advance(10 * time.Second)
	if n != 2 {
		t.Errorf("fired %d times, want 2", n)
	}
	m.After(time.Second, func() { t.Error("registered after Stop and fired") })
	m.Advance(5 * time.Second)
	if m.Pending() != 0 {
		t.Errorf("Pending = %d after Stop", m.Pending())
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual()
	h := m.After(time.Second, func() { t.Error("canceled timer fired") })
	h.Cancel()
	m.Advance(2 * time.Second)
}

func TestTimersStopPreventsFires(t *testing.T) {
	s := New()
	var n atomic.Int32
	s.Every(5*time.Millisecond, func() { n.Add(1) })
	s.After(5*time.Millisecond, func() { n.Add(100) })

	time.Sleep(30 * time.Millisecond)
	s.Stop()
	// a callback that passed its gate just before Stop may still be finishing
	time.Sleep(5 * time.Millisecond)
	before := n.Load()
	time.Sleep(30 * time.Millisecond)

	if n.Load() != before {
		t.Errorf("callbacks ran after Stop: %d -> %d", before, n.Load())
	}
	if before < 100 {
		t.Errorf("one-shot did not fire before Stop (n=%d)", before)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending = %d after Stop", s.Pending())
	}
}

func TestTimersStopInsideCallback(t *testing.T) {
	s := New()
	done := make(chan struct{})
	s.After(time.Millisecond, func() {
		s.Stop()
		close(done)
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop inside callback deadlocked")
	}
}
