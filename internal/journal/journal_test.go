package journal

import (
	"context"
	"errors"
	"testing"
)

func TestComputeEventIDDeterministic(t *testing.T) {
	a := ComputeEventID("transfer", "alice", "alice -> bob 10.0000 SYM", 7)
	b := ComputeEventID("transfer", "alice", "alice -> bob 10.0000 SYM", 7)

	if a != b {
		t.Errorf("same inputs must produce the same event_id: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256 of length 64, got %d", len(a))
	}
}

func TestComputeEventIDDistinguishesInputs(t *testing.T) {
	base := ComputeEventID("transfer", "alice", "payload", 1)

	variants := []string{
		ComputeEventID("issue", "alice", "payload", 1),
		ComputeEventID("transfer", "bob", "payload", 1),
		ComputeEventID("transfer", "alice", "other", 1),
		ComputeEventID("transfer", "alice", "payload", 2),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base", i)
		}
	}
}

func TestNewEventFillsFields(t *testing.T) {
	e := NewEvent("burn", "swap.eos", "burned 5.0000 CFF", 42)

	if e.EventID != ComputeEventID("burn", "swap.eos", "burned 5.0000 CFF", 42) {
		t.Error("EventID mismatch")
	}
	if e.Seq != 42 || e.Op != "burn" || e.Actor != "swap.eos" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt must be set")
	}
}

type failingWriter struct{ err error }

func (w failingWriter) Append(context.Context, *Event) error { return w.err }

type countingWriter struct{ n int }

func (w *countingWriter) Append(context.Context, *Event) error { w.n++; return nil }

func TestMultiWriterAttemptsAllSinks(t *testing.T) {
	boom := errors.New("boom")
	c := &countingWriter{}
	m := MultiWriter{failingWriter{boom}, c}

	err := m.Append(context.Background(), NewEvent("open", "alice", "", 1))
	if !errors.Is(err, boom) {
		t.Errorf("expected first error, got %v", err)
	}
	if c.n != 1 {
		t.Errorf("second sink must still be attempted, n=%d", c.n)
	}
}
