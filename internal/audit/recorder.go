package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
)

// pushTimeout bounds a Redis push so a slow broker cannot stall an exam.
const pushTimeout = 500 * time.Millisecond

// Recorder enqueues audit entries and swallows every failure.
type Recorder struct {
	queue Queue
	owner Owner
	log   zerolog.Logger
}

func NewRecorder(queue Queue, owner Owner, log zerolog.Logger) *Recorder {
	return &Recorder{queue: queue, owner: owner, log: log.With().Str("component", "audit_recorder").Logger()}
}

// Record implements proctor.Auditor.
func (r *Recorder) Record(ctx context.Context, entry model.ProctoringLog) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := r.queue.Push(ctx, Envelope{Entry: entry, Session: SessionOf(r.owner)}); err != nil {
		r.log.Debug().Err(err).Str("exam_id", entry.ExamID).Str("activity", entry.ActivityType).Msg("Dropping audit entry")
	}
}
