package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ViolationType enumerates proctoring violation categories.
type ViolationType string

const (
	ViolationNoFace            ViolationType = "NO_FACE"
	ViolationMultipleFaces     ViolationType = "MULTIPLE_FACES"
	ViolationInspectWindow     ViolationType = "INSPECT_WINDOW"
	ViolationInspectTab        ViolationType = "INSPECT_TAB"
	ViolationFocusLost         ViolationType = "FOCUS_LOST"
	ViolationCustom            ViolationType = "CUSTOM"
	ViolationCheatingSuspected ViolationType = "CHEATING_SUSPECTED"
)

// Severity grades a violation or an audit entry.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Violation is a single proctoring event.
type Violation struct {
	ID        uuid.UUID      `json:"id"`
	Type      ViolationType  `json:"type"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewViolation stamps a violation with an id and the current time.
func NewViolation(t ViolationType, sev Severity, msg string, meta map[string]any) Violation {
	return Violation{
		ID:        uuid.New(),
		Type:      t,
		Severity:  sev,
		Message:   msg,
		Timestamp: time.Now(),
		Metadata:  meta,
	}
}

// ProctoringLog is the wire shape of POST /proctoring/log. Metadata travels
// as a JSON-encoded string.
type ProctoringLog struct {
	ExamID       string   `json:"examId"`
	CandidateID  string   `json:"candidateId"`
	ActivityType string   `json:"activityType"`
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	Metadata     string   `json:"metadata"`
}

// NewProctoringLog builds an audit entry, defaulting the message and severity
// the way the proctoring API expects.
func NewProctoringLog(examID, candidateID string, activity ViolationType, msg string, sev Severity, meta map[string]any) ProctoringLog {
	if msg == "" {
		msg = "User performed " + string(activity)
	}
	if sev == "" {
		sev = SeverityMedium
	}
	if meta == nil {
		meta = map[string]any{}
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		encoded = []byte("{}")
	}
	return ProctoringLog{
		ExamID:       examID,
		CandidateID:  candidateID,
		ActivityType: string(activity),
		Message:      msg,
		Severity:     sev,
		Metadata:     string(encoded),
	}
}

// ProctoringSummary is the shape of GET /proctoring/:examId.
type ProctoringSummary struct {
	TotalLogs        int            `json:"totalLogs"`
	CountsByType     map[string]int `json:"countsByType"`
	CountsBySeverity map[string]int `json:"countsBySeverity"`
	CandidateID      *CandidateRef  `json:"candidateId,omitempty"`
}
