package exam

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/proctor"
	"github.com/stemsi/candidate-portal/internal/scheduler"
)

// Backend is the slice of the gateway the engine needs.
type Backend interface {
	GetExam(ctx context.Context, examID string) (*model.Exam, error)
	SubmitExam(ctx context.Context, examID string, answers model.AnswerSet) error
}

// Options configures one attempt. Zero values take defaults.
type Options struct {
	Duration      time.Duration
	Policy        proctor.Policy
	Scheduler     scheduler.Scheduler
	Random        proctor.Random
	Capture       proctor.Capture
	Detectors     []proctor.Detector
	Auditor       proctor.Auditor
	Notify        Notifier
	Log           zerolog.Logger
	RedirectAfter int
	SubmitTimeout time.Duration
}

// Session runs one exam attempt. Every callback (timer, detector, user
// action) takes the same lock, so handlers run to completion one at a time.
// Network calls are made with the lock released.
type Session struct {
	mu      sync.Mutex
	examID  string
	backend Backend
	opts    Options
	sched   scheduler.Scheduler
	log     zerolog.Logger

	state        State
	disqualified bool
	expired      bool
	closed       bool
	exam         *model.Exam
	candidateID  string
	answers      model.AnswerSet
	remaining    int
	redirectIn   int
	errMsg       string

	monitor   *proctor.Monitor
	sim       *proctor.Simulator
	countdown scheduler.Handle
	redirect  scheduler.Handle

	// set when the ladder trips while a submission is in flight
	pendingDisqualify *[2]int
}

// New creates an attempt for examID. Call Load to start it.
func New(examID string, backend Backend, opts Options) *Session {
	if opts.Duration <= 0 {
		opts.Duration = time.Hour
	}
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.New()
	}
	if opts.RedirectAfter <= 0 {
		opts.RedirectAfter = 5
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = 15 * time.Second
	}
	if opts.Notify == nil {
		opts.Notify = func(Event) {}
	}
	return &Session{
		examID:  examID,
		backend: backend,
		opts:    opts,
		sched:   opts.Scheduler,
		log:     opts.Log.With().Str("component", "exam_session").Str("exam_id", examID).Logger(),
		state:   StateLoading,
	}
}

// Load fetches the exam, seeds the answer set and starts the countdown and
// the proctoring simulator.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoading || s.closed {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	s.mu.Unlock()

	exam, err := s.backend.GetExam(ctx, s.examID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.state = StateError
		s.errMsg = "Failed to load exam. Please try again."
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("Failed to load exam")
		s.emit(Event{Type: EventError, Message: s.errMsg})
		s.emitState()
		return fmt.Errorf("load exam %s: %w", s.examID, err)
	}

	s.exam = exam
	s.state = StateReady
	s.answers = model.NewAnswerSet(exam.Questions)
	s.remaining = int(s.opts.Duration / time.Second)
	s.candidateID = exam.Owner().ID

	s.monitor = proctor.NewMonitor(proctor.MonitorConfig{
		ExamID:      s.examID,
		CandidateID: s.candidateID,
		Policy:      s.opts.Policy,
		Scheduler:   s.sched,
		Auditor:     s.opts.Auditor,
		Log:         s.opts.Log,
		Hooks: proctor.Hooks{
			OnViolation:        s.onViolation,
			OnWarning:          s.onWarning,
			OnWarningDismissed: s.onWarningDismissed,
			OnDisqualify:       s.onDisqualify,
		},
	})
	s.sim = proctor.NewSimulator(proctor.SimulatorConfig{
		Monitor:   s.monitor,
		Scheduler: s.sched,
		Random:    s.opts.Random,
		Capture:   s.opts.Capture,
		Detectors: s.opts.Detectors,
		Log:       s.opts.Log,
	})

	s.state = StateInProgress
	s.countdown = s.sched.Every(time.Second, s.tick)
	total := len(exam.Questions)
	s.mu.Unlock()

	s.sim.Start(ctx)
	s.audit(model.ViolationCustom, "Exam started by candidate", model.SeverityLow, map[string]any{
		"totalQuestions": total,
		"examStarted":    true,
	})
	s.log.Info().Int("questions", total).Dur("duration", s.opts.Duration).Msg("Exam started")
	s.emitState()
	return nil
}

// Answer records a candidate's input for question index. mcq, short and
// descriptive values replace the answer; an msq value toggles membership.
func (s *Session) Answer(index int, value string) error {
	s.mu.Lock()
	if s.disqualified {
		s.mu.Unlock()
		return ErrDisqualified
	}
	if s.state != StateInProgress {
		s.mu.Unlock()
		return ErrNotInProgress
	}
	if s.expired {
		s.mu.Unlock()
		return ErrTimeUp
	}
	if index < 0 || index >= len(s.exam.Questions) {
		s.mu.Unlock()
		return ErrInvalidQuestion
	}

	q := s.exam.Questions[index]
	key := model.Key(index)
	var next model.Answer
	if q.Type == model.QuestionMSQ {
		next = s.answers[key].Toggle(value)
	} else {
		next = model.TextAnswer(value)
	}
	s.answers[key] = next
	length := len(next.Values())
	if !next.IsList {
		length = len(next.Text)
	}
	s.mu.Unlock()

	s.audit(model.ViolationCustom, "Candidate answered question "+strconv.Itoa(index+1), model.SeverityLow, map[string]any{
		"questionIndex": index,
		"answerLength":  length,
		"questionType":  string(q.Type),
	})
	return nil
}

// Submit is the manual submission. It requires every question to be
// answered while time remains. Repeated calls after a successful submission
// are no-ops.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.disqualified {
		s.mu.Unlock()
		s.emit(Event{Type: EventNavigate, Target: DashboardRoute})
		return ErrDisqualified
	}
	switch s.state {
	case StateSubmitted:
		s.mu.Unlock()
		return nil
	case StateInProgress:
	default:
		s.mu.Unlock()
		return ErrNotInProgress
	}

	answered := s.answers.AnsweredCount()
	total := len(s.exam.Questions)
	stats := s.monitor.Stats()
	// once time is up a retry goes out as-is, like the automatic submission
	incomplete := s.remaining > 0 &&
		(len(model.MissingAnswers(s.exam.Questions, s.answers)) > 0 ||
			model.ValidateAnswerShape(s.exam.Questions, s.answers) != nil)
	var payload model.AnswerSet
	if !incomplete {
		s.state = StateSubmitting
		payload = model.FormatAnswersForSubmission(s.exam.Questions, s.answers)
	}
	s.mu.Unlock()

	s.audit(model.ViolationCustom, "Candidate initiated exam submission", model.SeverityLow, map[string]any{
		"answeredCount":  answered,
		"totalQuestions": total,
		"violationCount": stats.Violations,
	})
	if incomplete {
		return ErrIncomplete
	}

	s.emitState()
	return s.send(ctx, payload, false)
}

// send performs a submission already marked Submitting. When a manual
// submission fails after the clock ran out underneath it, the automatic
// submission that tick had to skip goes out instead.
func (s *Session) send(ctx context.Context, payload model.AnswerSet, auto bool) error {
	err := s.backend.SubmitExam(ctx, s.examID, payload)

	s.mu.Lock()
	if err != nil {
		var pending *[2]int
		var forced model.AnswerSet
		if s.state == StateSubmitting {
			s.state = StateInProgress
			pending, s.pendingDisqualify = s.pendingDisqualify, nil
			if pending == nil && s.expired && !auto && !s.closed {
				s.state = StateSubmitting
				forced = model.FormatAnswersForSubmission(s.exam.Questions, s.answers)
			}
		}
		s.mu.Unlock()

		s.log.Error().Err(err).Bool("auto", auto).Msg("Exam submission failed")
		s.audit(model.ViolationCustom, "Exam submission failed", model.SeverityMedium, map[string]any{
			"error":       err.Error(),
			"attemptedAt": time.Now().UTC().Format(time.RFC3339),
			"auto":        auto,
		})
		if pending != nil {
			s.onDisqualify(pending[0], pending[1])
			return fmt.Errorf("submit exam %s: %w", s.examID, err)
		}
		if forced != nil {
			s.log.Info().Msg("Time ran out during a failed submission, submitting automatically")
			autoCtx, cancel := context.WithTimeout(context.Background(), s.opts.SubmitTimeout)
			defer cancel()
			return s.send(autoCtx, forced, true)
		}
		s.emit(Event{Type: EventError, Message: "Failed to submit exam. Please try again."})
		s.emitState()
		return fmt.Errorf("submit exam %s: %w", s.examID, err)
	}

	s.state = StateSubmitted
	s.pendingDisqualify = nil
	s.stopTimersLocked()
	s.mu.Unlock()

	s.sim.Stop()
	s.audit(model.ViolationCustom, "Exam submitted successfully", model.SeverityLow, map[string]any{
		"submittedAt": time.Now().UTC().Format(time.RFC3339),
		"finalScore":  "pending",
		"auto":        auto,
	})
	s.log.Info().Bool("auto", auto).Msg("Exam submitted")
	s.emitState()
	s.emit(Event{Type: EventNavigate, Target: ResultRoute(s.examID)})
	return nil
}

// tick runs once per second while the countdown is live.
func (s *Session) tick() {
	s.mu.Lock()
	if s.state != StateInProgress && s.state != StateSubmitting {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	remaining := s.remaining

	var payload model.AnswerSet
	expired := remaining == 0
	if expired {
		s.expired = true
		if s.countdown != nil {
			s.countdown.Cancel()
			s.countdown = nil
		}
		if s.state == StateInProgress {
			s.state = StateSubmitting
			payload = model.FormatAnswersForSubmission(s.exam.Questions, s.answers)
		}
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventTick, Remaining: remaining})
	if payload == nil {
		return
	}

	s.log.Info().Msg("Time is up, submitting automatically")
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SubmitTimeout)
	defer cancel()
	_ = s.send(ctx, payload, true)
}

func (s *Session) onViolation(v model.Violation, total int) {
	s.emit(Event{Type: EventViolation, Violation: &v, Violations: total})
}

func (s *Session) onWarning(w proctor.Warning) {
	s.emit(Event{Type: EventWarning, Warning: &w, Violations: w.TotalViolations, Warnings: w.Number})
}

func (s *Session) onWarningDismissed(number int) {
	s.emit(Event{Type: EventWarningDismissed, Number: number})
}

// onDisqualify ends the attempt after the final warning. The answers are
// frozen and submitted best-effort; a failure is only logged.
func (s *Session) onDisqualify(violations, warnings int) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.pendingDisqualify = &[2]int{violations, warnings}
		s.mu.Unlock()
		return
	}
	if s.state != StateInProgress || s.disqualified {
		s.mu.Unlock()
		return
	}
	s.state = StateDisqualified
	s.disqualified = true
	if s.countdown != nil {
		s.countdown.Cancel()
		s.countdown = nil
	}
	payload := model.FormatAnswersForSubmission(s.exam.Questions, s.answers)
	s.redirectIn = s.opts.RedirectAfter
	s.redirect = s.sched.Every(time.Second, s.redirectTick)
	s.mu.Unlock()

	s.sim.Stop()
	s.log.Warn().Int("violations", violations).Int("warnings", warnings).Msg("Exam attempt disqualified")
	s.emit(Event{Type: EventDisqualified, Violations: violations, Warnings: warnings})
	s.emitState()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SubmitTimeout)
	defer cancel()
	if err := s.backend.SubmitExam(ctx, s.examID, payload); err != nil {
		s.log.Warn().Err(err).Msg("Submission after disqualification failed")
		return
	}

	s.mu.Lock()
	if s.state == StateDisqualified {
		s.state = StateSubmitted
	}
	s.mu.Unlock()
	s.emitState()
}

func (s *Session) redirectTick() {
	s.mu.Lock()
	if !s.disqualified || s.closed {
		s.mu.Unlock()
		return
	}
	s.redirectIn--
	left := s.redirectIn
	s.mu.Unlock()

	s.emit(Event{Type: EventRedirectTick, Remaining: left})
	if left <= 0 {
		s.LeaveNow()
	}
}

// LeaveNow navigates a disqualified candidate back to the dashboard without
// waiting for the redirect countdown.
func (s *Session) LeaveNow() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventNavigate, Target: DashboardRoute})
	s.Close()
}

// DismissWarning hides the active proctoring warning.
func (s *Session) DismissWarning() {
	if m := s.proctorMonitor(); m != nil {
		m.DismissWarning()
	}
}

// Visibility forwards a page visibility change to the simulator.
func (s *Session) Visibility(hidden bool) {
	if sim := s.activeSimulator(); sim != nil {
		sim.VisibilityChanged(hidden)
	}
}

// Blur forwards loss of window focus to the simulator.
func (s *Session) Blur() {
	if sim := s.activeSimulator(); sim != nil {
		sim.WindowBlur()
	}
}

// Focus forwards regained window focus to the simulator.
func (s *Session) Focus() {
	if sim := s.activeSimulator(); sim != nil {
		sim.WindowFocus()
	}
}

func (s *Session) activeSimulator() *proctor.Simulator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress && s.state != StateSubmitting {
		return nil
	}
	return s.sim
}

func (s *Session) proctorMonitor() *proctor.Monitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monitor
}

// Close tears the attempt down: every timer is canceled, the simulator is
// stopped and the capture handle released. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimersLocked()
	sim := s.sim
	s.mu.Unlock()

	if sim != nil {
		sim.Stop()
	}
	s.sched.Stop()
}

func (s *Session) stopTimersLocked() {
	if s.countdown != nil {
		s.countdown.Cancel()
		s.countdown = nil
	}
	if s.redirect != nil {
		s.redirect.Cancel()
		s.redirect = nil
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of everything the exam view renders.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ExamID:       s.examID,
		State:        s.state,
		Disqualified: s.disqualified,
		Remaining:    s.remaining,
		Clock:        FormatTime(s.remaining),
		RedirectIn:   s.redirectIn,
		Error:        s.errMsg,
	}
	if s.exam != nil {
		snap.Title = s.exam.Title
		snap.Questions = questionViews(s.exam.Questions)
		snap.Answers = s.answers.Clone()
		snap.Answered = s.answers.AnsweredCount()
		snap.Total = len(s.exam.Questions)
		if snap.Total > 0 {
			snap.Progress = float64(snap.Answered) / float64(snap.Total) * 100
		}
	}
	monitor := s.monitor
	s.mu.Unlock()

	if monitor != nil {
		stats := monitor.Stats()
		snap.Violations = stats.Violations
		snap.Warnings = stats.Warnings
		snap.NextWarningIn = stats.NextWarningIn
		snap.ActiveWarning = stats.ActiveWarning
	}
	return snap
}

// AnsweredCount is the number of questions with a non-empty answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.AnsweredCount()
}

func (s *Session) emit(e Event) {
	s.opts.Notify(e)
}

func (s *Session) emitState() {
	s.emit(Event{Type: EventState, Snapshot: s.Snapshot()})
}

func (s *Session) audit(activity model.ViolationType, msg string, sev model.Severity, meta map[string]any) {
	if s.opts.Auditor == nil {
		return
	}
	s.mu.Lock()
	candidateID := s.candidateID
	s.mu.Unlock()
	s.opts.Auditor.Record(context.Background(), model.NewProctoringLog(s.examID, candidateID, activity, msg, sev, meta))
}
