package proctor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/scheduler"
)

// Policy holds the warning ladder thresholds.
type Policy struct {
	ViolationsPerWarning int
	MaxWarnings          int
	WarningDisplay       time.Duration
	DisqualifyDelay      time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		ViolationsPerWarning: 10,
		MaxWarnings:          4,
		WarningDisplay:       10 * time.Second,
		DisqualifyDelay:      2 * time.Second,
	}
}

// Auditor forwards audit entries. Implementations must not block and must
// swallow their own failures.
type Auditor interface {
	Record(ctx context.Context, entry model.ProctoringLog)
}

// Warning is a notice raised every ViolationsPerWarning violations.
type Warning struct {
	Number          int             `json:"number"`
	MaxWarnings     int             `json:"maxWarnings"`
	TotalViolations int             `json:"totalViolations"`
	Final           bool            `json:"final"`
	Violation       model.Violation `json:"violation"`
}

// Hooks receive ladder events. All hooks run without any Monitor lock held.
type Hooks struct {
	OnViolation        func(v model.Violation, total int)
	OnWarning          func(w Warning)
	OnWarningDismissed func(number int)
	OnDisqualify       func(violations, warnings int)
}

// Stats is a point-in-time view of the ladder.
type Stats struct {
	Violations    int                         `json:"violations"`
	Warnings      int                         `json:"warnings"`
	NextWarningIn int                         `json:"nextWarningIn"`
	CountsByType  map[model.ViolationType]int `json:"countsByType"`
	Recent        []model.Violation           `json:"recent"`
	ActiveWarning *Warning                    `json:"activeWarning,omitempty"`
}

const recentLimit = 4

// Monitor counts violations, raises warnings and schedules disqualification.
// Emit is the detector interface: anything that spots a violation calls it.
type Monitor struct {
	mu          sync.Mutex
	examID      string
	candidateID string
	policy      Policy
	sched       scheduler.Scheduler
	audit       Auditor
	hooks       Hooks
	log         zerolog.Logger

	violations int
	warnings   int
	byType     map[model.ViolationType]int
	recent     []model.Violation
	active     *Warning
	dismiss    scheduler.Handle
	disqualify bool
	stopped    bool
}

// MonitorConfig wires a Monitor.
type MonitorConfig struct {
	ExamID      string
	CandidateID string
	Policy      Policy
	Scheduler   scheduler.Scheduler
	Auditor     Auditor
	Hooks       Hooks
	Log         zerolog.Logger
}

func NewMonitor(cfg MonitorConfig) *Monitor {
	p := cfg.Policy
	def := DefaultPolicy()
	if p.ViolationsPerWarning <= 0 {
		p.ViolationsPerWarning = def.ViolationsPerWarning
	}
	if p.MaxWarnings <= 0 {
		p.MaxWarnings = def.MaxWarnings
	}
	if p.WarningDisplay <= 0 {
		p.WarningDisplay = def.WarningDisplay
	}
	if p.DisqualifyDelay <= 0 {
		p.DisqualifyDelay = def.DisqualifyDelay
	}
	return &Monitor{
		examID:      cfg.ExamID,
		candidateID: cfg.CandidateID,
		policy:      p,
		sched:       cfg.Scheduler,
		audit:       cfg.Auditor,
		hooks:       cfg.Hooks,
		log:         cfg.Log.With().Str("component", "proctor_monitor").Str("exam_id", cfg.ExamID).Logger(),
		byType:      make(map[model.ViolationType]int),
	}
}

// Emit records one violation.
func (m *Monitor) Emit(v model.Violation) {
	if v.Timestamp.IsZero() {
		v = model.NewViolation(v.Type, v.Severity, v.Message, v.Metadata)
	}

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.violations++
	m.byType[v.Type]++
	m.recent = append(m.recent, v)
	if len(m.recent) > recentLimit {
		m.recent = m.recent[len(m.recent)-recentLimit:]
	}
	total := m.violations

	var warning *Warning
	if total%m.policy.ViolationsPerWarning == 0 && m.warnings < m.policy.MaxWarnings {
		m.warnings++
		w := Warning{
			Number:          m.warnings,
			MaxWarnings:     m.policy.MaxWarnings,
			TotalViolations: total,
			Final:           m.warnings >= m.policy.MaxWarnings-1,
			Violation:       v,
		}
		m.active = &w
		if m.dismiss != nil {
			m.dismiss.Cancel()
		}
		number := w.Number
		m.dismiss = m.sched.After(m.policy.WarningDisplay, func() { m.autoDismiss(number) })
		warning = &w
	}
	if m.warnings >= m.policy.MaxWarnings && !m.disqualify {
		m.disqualify = true
		m.sched.After(m.policy.DisqualifyDelay, m.fireDisqualify)
	}
	warnings := m.warnings
	m.mu.Unlock()

	meta := copyMeta(v.Metadata)
	meta["violationNumber"] = total
	meta["warningNumber"] = warnings
	meta["timestamp"] = v.Timestamp.Format(time.RFC3339)
	m.record(model.NewProctoringLog(m.examID, m.candidateID, v.Type, v.Message, v.Severity, meta))

	if m.hooks.OnViolation != nil {
		m.hooks.OnViolation(v, total)
	}
	if warning != nil {
		m.log.Warn().Int("warning", warning.Number).Int("violations", total).Msg("Proctoring warning issued")
		m.record(model.NewProctoringLog(m.examID, m.candidateID, model.ViolationCustom,
			fmt.Sprintf("Proctoring warning %d of %d issued", warning.Number, warning.MaxWarnings),
			model.SeverityMedium,
			map[string]any{"warningNumber": warning.Number, "totalViolations": total},
		))
		if m.hooks.OnWarning != nil {
			m.hooks.OnWarning(*warning)
		}
	}
}

// DismissWarning hides the active warning before its display time runs out.
func (m *Monitor) DismissWarning() {
	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return
	}
	number := m.active.Number
	m.clearActiveLocked()
	m.mu.Unlock()
	m.notifyDismissed(number)
}

func (m *Monitor) autoDismiss(number int) {
	m.mu.Lock()
	if m.active == nil || m.active.Number != number {
		m.mu.Unlock()
		return
	}
	m.clearActiveLocked()
	m.mu.Unlock()
	m.notifyDismissed(number)
}

func (m *Monitor) clearActiveLocked() {
	m.active = nil
	if m.dismiss != nil {
		m.dismiss.Cancel()
		m.dismiss = nil
	}
}

func (m *Monitor) notifyDismissed(number int) {
	if m.hooks.OnWarningDismissed != nil {
		m.hooks.OnWarningDismissed(number)
	}
}

func (m *Monitor) fireDisqualify() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	violations, warnings := m.violations, m.warnings
	m.mu.Unlock()

	m.log.Error().Int("violations", violations).Int("warnings", warnings).Msg("Candidate disqualified")
	m.record(model.NewProctoringLog(m.examID, m.candidateID, model.ViolationCheatingSuspected,
		"Candidate disqualified due to excessive proctoring violations",
		model.SeverityHigh,
		map[string]any{"totalViolations": violations, "totalWarnings": warnings},
	))
	if m.hooks.OnDisqualify != nil {
		m.hooks.OnDisqualify(violations, warnings)
	}
}

// Stop makes the monitor ignore further events.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.clearActiveLocked()
}

// Stats returns a copy of the ladder state.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	byType := make(map[model.ViolationType]int, len(m.byType))
	for k, v := range m.byType {
		byType[k] = v
	}
	s := Stats{
		Violations:    m.violations,
		Warnings:      m.warnings,
		NextWarningIn: m.policy.ViolationsPerWarning - m.violations%m.policy.ViolationsPerWarning,
		CountsByType:  byType,
		Recent:        append([]model.Violation(nil), m.recent...),
	}
	if m.warnings >= m.policy.MaxWarnings {
		s.NextWarningIn = 0
	}
	if m.active != nil {
		w := *m.active
		s.ActiveWarning = &w
	}
	return s
}

// Log forwards a non-violation audit entry, such as a tab return.
func (m *Monitor) Log(activity model.ViolationType, msg string, sev model.Severity, meta map[string]any) {
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return
	}
	m.record(model.NewProctoringLog(m.examID, m.candidateID, activity, msg, sev, meta))
}

func (m *Monitor) record(entry model.ProctoringLog) {
	if m.audit != nil {
		m.audit.Record(context.Background(), entry)
	}
}

func copyMeta(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+3)
	for k, v := range in {
		out[k] = v
	}
	return out
}
