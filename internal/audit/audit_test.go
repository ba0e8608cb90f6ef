package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/model"
)

func TestChannelQueueFIFOAndFull(t *testing.T) {
	q := NewChannelQueue(2)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := q.Push(ctx, Envelope{Entry: model.ProctoringLog{ExamID: id}}); err != nil {
			t.Fatalf("Push %s: %v", id, err)
		}
	}
	if err := q.Push(ctx, Envelope{}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("third push err = %v, want ErrQueueFull", err)
	}

	first, _ := q.Pop(ctx, time.Millisecond)
	second, _ := q.Pop(ctx, time.Millisecond)
	if first.Entry.ExamID != "a" || second.Entry.ExamID != "b" {
		t.Errorf("order = %s, %s", first.Entry.ExamID, second.Entry.ExamID)
	}
	if env, err := q.Pop(ctx, time.Millisecond); env != nil || err != nil {
		t.Errorf("empty Pop = %v, %v", env, err)
	}
}

func TestRecorderNeverBlocks(t *testing.T) {
	q := NewChannelQueue(1)
	r := NewRecorder(q, nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			r.Record(context.Background(), model.ProctoringLog{ExamID: "e1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full queue")
	}
	if q.Len() != 1 {
		t.Errorf("Len = %d, want 1", q.Len())
	}
}

type staticOwner string

func (o staticOwner) Token() string { return string(o) }

func TestRecorderStampsSession(t *testing.T) {
	q := NewChannelQueue(2)
	r := NewRecorder(q, staticOwner("token-a"), zerolog.Nop())
	r.Record(context.Background(), model.ProctoringLog{ExamID: "e1"})

	env, _ := q.Pop(context.Background(), time.Millisecond)
	if env == nil || env.Session != Fingerprint("token-a") {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Session == Fingerprint("token-b") || Fingerprint("") != "" {
		t.Error("fingerprints do not tell sessions apart")
	}
}
