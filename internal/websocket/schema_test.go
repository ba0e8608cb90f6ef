package websocket

import (
	"testing"

	"github.com/stemsi/candidate-portal/internal/exam"
	"github.com/stemsi/candidate-portal/internal/proctor"
)

func TestFromExamEvent(t *testing.T) {
	tests := []struct {
		in   exam.Event
		want Event
		ok   func(Frame) bool
	}{
		{
			exam.Event{Type: exam.EventTick, Remaining: 65},
			EventTick,
			func(f Frame) bool { return f.Remaining != nil && *f.Remaining == 65 && f.Clock == "01:05" },
		},
		{
			exam.Event{Type: exam.EventState, Snapshot: exam.Snapshot{State: exam.StateSubmitted}},
			EventState,
			func(f Frame) bool { return f.Snapshot != nil && f.Snapshot.State == exam.StateSubmitted },
		},
		{
			exam.Event{Type: exam.EventWarning, Warning: &proctor.Warning{Number: 2, MaxWarnings: 4}},
			EventWarning,
			func(f Frame) bool { return f.Warning != nil && f.Warning.Number == 2 },
		},
		{
			exam.Event{Type: exam.EventDisqualified, Violations: 40, Warnings: 4},
			EventDisqualified,
			func(f Frame) bool { return f.Violations == 40 && f.Warnings == 4 },
		},
		{
			exam.Event{Type: exam.EventNavigate, Target: exam.DashboardRoute},
			EventNavigate,
			func(f Frame) bool { return f.Target == "/exam-dashboard" },
		},
		{
			exam.Event{Type: exam.EventError, Message: "boom"},
			EventError,
			func(f Frame) bool { return f.Error == "boom" },
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.in.Type), func(t *testing.T) {
			got := FromExamEvent(tt.in)
			if got.Event != tt.want || !tt.ok(got) {
				t.Errorf("FromExamEvent(%+v) = %+v", tt.in, got)
			}
		})
	}
}
