package proctor

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/scheduler"
)

// Capture is the camera/microphone handle held for the life of an attempt.
type Capture interface {
	Open(ctx context.Context) error
	Close() error
}

// NopCapture stands in when no device is attached.
type NopCapture struct{}

func (NopCapture) Open(context.Context) error { return nil }
func (NopCapture) Close() error               { return nil }

// Simulator drives the detectors and translates focus and visibility
// changes into violations on its Monitor.
type Simulator struct {
	mu        sync.Mutex
	monitor   *Monitor
	sched     scheduler.Scheduler
	rnd       Random
	capture   Capture
	detectors []Detector
	handles   []scheduler.Handle
	captured  bool
	running   bool
	stopped   bool
	log       zerolog.Logger
}

// SimulatorConfig wires a Simulator. Nil fields take defaults.
type SimulatorConfig struct {
	Monitor   *Monitor
	Scheduler scheduler.Scheduler
	Random    Random
	Capture   Capture
	Detectors []Detector
	Log       zerolog.Logger
}

func NewSimulator(cfg SimulatorConfig) *Simulator {
	s := &Simulator{
		monitor:   cfg.Monitor,
		sched:     cfg.Scheduler,
		rnd:       cfg.Random,
		capture:   cfg.Capture,
		detectors: cfg.Detectors,
		log:       cfg.Log.With().Str("component", "proctor_simulator").Logger(),
	}
	if s.rnd == nil {
		s.rnd = DefaultRandom
	}
	if s.capture == nil {
		s.capture = NopCapture{}
	}
	if s.detectors == nil {
		s.detectors = DefaultDetectors()
	}
	return s
}

// Start opens the capture device and registers every detector. A capture
// failure is logged and monitoring continues without it.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	captured := true
	if err := s.capture.Open(ctx); err != nil {
		captured = false
		s.log.Warn().Err(err).Msg("Capture device unavailable")
		s.monitor.Log(model.ViolationCustom, "Failed to start proctoring - camera/mic access denied", model.SeverityHigh,
			map[string]any{"error": err.Error()})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		if captured {
			_ = s.capture.Close()
		}
		return
	}
	s.captured = captured
	for _, d := range s.detectors {
		s.handles = append(s.handles, s.sched.Every(d.Interval, func() { s.run(d) }))
	}
	if captured {
		s.monitor.Log(model.ViolationCustom, "Proctoring monitoring started", model.SeverityLow,
			map[string]any{"detectors": len(s.detectors)})
	}
}

func (s *Simulator) run(d Detector) {
	s.mu.Lock()
	active := s.running && !s.stopped
	s.mu.Unlock()
	if !active {
		return
	}
	if v := d.Check(s.rnd); v != nil {
		s.log.Debug().Str("detector", d.Name).Str("type", string(v.Type)).Msg("Detector fired")
		s.monitor.Emit(*v)
	}
}

// VisibilityChanged reports the exam view being hidden or shown again.
func (s *Simulator) VisibilityChanged(hidden bool) {
	if !s.active() {
		return
	}
	if hidden {
		s.monitor.Emit(model.NewViolation(model.ViolationInspectWindow, model.SeverityMedium,
			"You switched to another tab/window", map[string]any{"event": "visibility_hidden"}))
		return
	}
	s.monitor.Log(model.ViolationCustom, "Candidate returned to exam tab", model.SeverityLow,
		map[string]any{"event": "tab_return"})
}

// WindowBlur reports focus leaving the exam window.
func (s *Simulator) WindowBlur() {
	if !s.active() {
		return
	}
	s.monitor.Emit(model.NewViolation(model.ViolationFocusLost, model.SeverityMedium,
		"You switched to another application", map[string]any{"event": "window_blur"}))
}

// WindowFocus reports focus returning; it is logged, not counted.
func (s *Simulator) WindowFocus() {
	if !s.active() {
		return
	}
	s.monitor.Log(model.ViolationCustom, "Exam window regained focus", model.SeverityLow,
		map[string]any{"event": "window_focus"})
}

func (s *Simulator) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.stopped
}

// Stop cancels the detectors, releases the capture handle and stops the
// monitor. It is idempotent.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for _, h := range s.handles {
		h.Cancel()
	}
	s.handles = nil
	captured := s.captured
	s.captured = false
	s.mu.Unlock()

	s.monitor.Stop()
	if captured {
		if err := s.capture.Close(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to release capture device")
		}
	}
}

// Monitor returns the ladder this simulator reports into.
func (s *Simulator) Monitor() *Monitor { return s.monitor }
