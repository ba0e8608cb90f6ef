package websocket

import (
	"github.com/stemsi/candidate-portal/internal/exam"
	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/proctor"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer         Action = "answer"
	ActionSubmit         Action = "submit"
	ActionVisibility     Action = "visibility"
	ActionBlur           Action = "blur"
	ActionFocus          Action = "focus"
	ActionDismissWarning Action = "dismiss_warning"
	ActionLeave          Action = "leave"
	ActionPing           Action = "ping"
)

// Request is any client message. Only the fields relevant to Action are read.
type Request struct {
	Action Action `json:"action"`
	Index  *int   `json:"index,omitempty"`
	Value  string `json:"value,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState            Event = "state"
	EventTick             Event = "tick"
	EventViolation        Event = "violation"
	EventWarning          Event = "warning"
	EventWarningDismissed Event = "warning_dismissed"
	EventDisqualified     Event = "disqualified"
	EventRedirectTick     Event = "redirect_tick"
	EventNavigate         Event = "navigate"
	EventAck              Event = "ack"
	EventError            Event = "error"
	EventPong             Event = "pong"
)

// Frame is every server message.
type Frame struct {
	Event      Event            `json:"event"`
	Action     Action           `json:"action,omitempty"`
	Snapshot   *exam.Snapshot   `json:"snapshot,omitempty"`
	Remaining  *int             `json:"remaining,omitempty"`
	Clock      string           `json:"clock,omitempty"`
	Warning    *proctor.Warning `json:"warning,omitempty"`
	Violation  *model.Violation `json:"violation,omitempty"`
	Violations int              `json:"violations,omitempty"`
	Warnings   int              `json:"warnings,omitempty"`
	Number     int              `json:"number,omitempty"`
	Target     string           `json:"target,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// FromExamEvent maps an engine event to its wire frame.
func FromExamEvent(e exam.Event) Frame {
	switch e.Type {
	case exam.EventState:
		snap := e.Snapshot
		return Frame{Event: EventState, Snapshot: &snap}
	case exam.EventTick:
		remaining := e.Remaining
		return Frame{Event: EventTick, Remaining: &remaining, Clock: exam.FormatTime(e.Remaining)}
	case exam.EventViolation:
		return Frame{Event: EventViolation, Violation: e.Violation, Violations: e.Violations}
	case exam.EventWarning:
		return Frame{Event: EventWarning, Warning: e.Warning}
	case exam.EventWarningDismissed:
		return Frame{Event: EventWarningDismissed, Number: e.Number}
	case exam.EventDisqualified:
		return Frame{Event: EventDisqualified, Violations: e.Violations, Warnings: e.Warnings}
	case exam.EventRedirectTick:
		remaining := e.Remaining
		return Frame{Event: EventRedirectTick, Remaining: &remaining}
	case exam.EventNavigate:
		return Frame{Event: EventNavigate, Target: e.Target}
	default:
		return Frame{Event: EventError, Error: e.Message}
	}
}
