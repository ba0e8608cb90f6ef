package exam

import (
	"errors"
	"fmt"

	"github.com/stemsi/candidate-portal/internal/model"
	"github.com/stemsi/candidate-portal/internal/proctor"
)

// State is the lifecycle stage of one exam attempt.
type State string

const (
	StateLoading      State = "loading"
	StateReady        State = "ready"
	StateInProgress   State = "in_progress"
	StateSubmitting   State = "submitting"
	StateSubmitted    State = "submitted"
	StateDisqualified State = "disqualified"
	StateError        State = "error"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateDisqualified || s == StateError
}

var (
	ErrIncomplete      = errors.New("please answer all questions before submitting")
	ErrNotInProgress   = errors.New("exam is not in progress")
	ErrDisqualified    = errors.New("candidate has been disqualified from this exam")
	ErrInvalidQuestion = errors.New("question index out of range")
	ErrTimeUp          = errors.New("time is up, answers can no longer be changed")
)

// DashboardRoute is where a disqualified candidate is sent.
const DashboardRoute = "/exam-dashboard"

// ResultRoute is where a candidate lands after a successful submission.
func ResultRoute(examID string) string {
	return "/exam/" + examID + "/result"
}

// FormatTime renders seconds as MM:SS.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// EventType names an engine event.
type EventType string

const (
	EventState            EventType = "state"
	EventTick             EventType = "tick"
	EventViolation        EventType = "violation"
	EventWarning          EventType = "warning"
	EventWarningDismissed EventType = "warning_dismissed"
	EventDisqualified     EventType = "disqualified"
	EventRedirectTick     EventType = "redirect_tick"
	EventNavigate         EventType = "navigate"
	EventError            EventType = "error"
)

// Event is pushed to the Notifier as the attempt progresses. Only the fields
// relevant to Type are set.
type Event struct {
	Type       EventType
	Snapshot   Snapshot
	Remaining  int
	Warning    *proctor.Warning
	Violation  *model.Violation
	Violations int
	Warnings   int
	Number     int
	Target     string
	Message    string
}

// Notifier receives engine events. It is called without the engine lock
// held and must not block for long.
type Notifier func(Event)

// Snapshot is a read-only view of an attempt for rendering.
type Snapshot struct {
	ExamID        string           `json:"examId"`
	Title         string           `json:"title,omitempty"`
	State         State            `json:"state"`
	Disqualified  bool             `json:"disqualified"`
	Questions     []QuestionView   `json:"questions"`
	Answers       model.AnswerSet  `json:"answers"`
	Answered      int              `json:"answered"`
	Total         int              `json:"total"`
	Progress      float64          `json:"progress"`
	Remaining     int              `json:"remaining"`
	Clock         string           `json:"clock"`
	Violations    int              `json:"violations"`
	Warnings      int              `json:"warnings"`
	NextWarningIn int              `json:"nextWarningIn"`
	ActiveWarning *proctor.Warning `json:"activeWarning,omitempty"`
	RedirectIn    int              `json:"redirectIn,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// QuestionView is a question as shown to the candidate, without the
// correct answer.
type QuestionView struct {
	Number  int                `json:"number"`
	Type    model.QuestionType `json:"type"`
	Label   string             `json:"label"`
	Prompt  string             `json:"question"`
	Options []string           `json:"options,omitempty"`
}

func questionViews(qs []model.Question) []QuestionView {
	out := make([]QuestionView, len(qs))
	for i, q := range qs {
		out[i] = QuestionView{
			Number:  i + 1,
			Type:    q.Type,
			Label:   q.Type.Label(),
			Prompt:  q.Prompt,
			Options: q.Options,
		}
	}
	return out
}
