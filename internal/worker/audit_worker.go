package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/audit"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/model"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
	SendTimeout  = 5 * time.Second
	MaxAttempts  = 3
)

// Sender delivers one audit entry to the proctoring API.
type Sender interface {
	LogProctoring(ctx context.Context, entry model.ProctoringLog) error
}

// AuditWorker drains the audit queue into the proctoring-log endpoint.
// Delivery is best-effort: entries that keep failing are dropped, and so are
// entries recorded under a session that is no longer the current one.
type AuditWorker struct {
	queue  audit.Queue
	sender Sender
	owner  audit.Owner
	log    zerolog.Logger
	// backoff is slept after a requeue so a down backend is not hammered.
	backoff time.Duration
}

func NewAuditWorker(queue audit.Queue, sender Sender, owner audit.Owner, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		queue:   queue,
		sender:  sender,
		owner:   owner,
		log:     log.With().Str("component", "audit_worker").Logger(),
		backoff: 2 * time.Second,
	}
}

func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AuditWorker started")

	buffer := make([]audit.Envelope, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flush(ctx, buffer)
				buffer = buffer[:0]
				lastFlushTime = time.Now()
			}
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		env, err := w.queue.Pop(ctx, PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			var malformed *audit.MalformedError
			if errors.As(err, &malformed) {
				w.log.Error().Err(err).Str("data", malformed.Data).Msg("Discarding malformed audit entry")
				continue
			}
			w.log.Error().Err(err).Msg("Audit queue error, sleeping 3s")
			sleepCtx(ctx, 3*time.Second)
			continue
		}
		if env == nil {
			continue
		}
		buffer = append(buffer, *env)
	}
}

// flush sends every entry; transient failures are requeued until
// MaxAttempts, everything else is dropped.
func (w *AuditWorker) flush(ctx context.Context, batch []audit.Envelope) {
	requeueList := make([]audit.Envelope, 0)
	sent, stale := 0, 0
	current := audit.SessionOf(w.owner)

	for _, env := range batch {
		if w.owner != nil && env.Session != current {
			stale++
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, SendTimeout)
		err := w.sender.LogProctoring(sendCtx, env.Entry)
		cancel()
		if err == nil {
			sent++
			continue
		}

		env.Attempts++
		if retryable(err) && env.Attempts < MaxAttempts {
			requeueList = append(requeueList, env)
			continue
		}
		w.log.Warn().Err(err).
			Str("exam_id", env.Entry.ExamID).
			Str("activity", env.Entry.ActivityType).
			Int("attempts", env.Attempts).
			Msg("Dropping audit entry")
	}

	if stale > 0 {
		w.log.Debug().Int("count", stale).Msg("Dropping audit entries from a previous session")
	}
	if sent > 0 {
		w.log.Debug().Int("count", sent).Msg("Audit entries delivered")
	}
	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func retryable(err error) bool {
	switch gateway.KindOf(err) {
	case gateway.KindNetwork:
		return true
	case gateway.KindAuth, gateway.KindValidation:
		return false
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func (w *AuditWorker) requeue(ctx context.Context, items []audit.Envelope) {
	if err := w.queue.Requeue(ctx, items); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("Failed to requeue audit entries, dropping them")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued undelivered audit entries")
	sleepCtx(ctx, w.backoff)
}

func (w *AuditWorker) shutdown(buffer []audit.Envelope) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushFinal(shutdownCtx, buffer)
	}
}

// flushFinal is flush without requeueing; nothing will drain the queue again.
func (w *AuditWorker) flushFinal(ctx context.Context, batch []audit.Envelope) {
	for _, env := range batch {
		if err := w.sender.LogProctoring(ctx, env.Entry); err != nil {
			w.log.Warn().Err(err).Str("exam_id", env.Entry.ExamID).Msg("Dropping audit entry on shutdown")
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
