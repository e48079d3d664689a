// Package journal records committed ledger operations as append-only audit
// events. The journal is advisory: a failed append never fails the operation
// that produced the event.
package journal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"coffee-ledger/internal/domain"
)

// Event is one committed operation.
type Event struct {
	EventID   string      // deterministic hash, see ComputeEventID
	Seq       uint64      // engine-local sequence number
	Op        string      // operation name: create, issue, transfer, ...
	Actor     domain.Name // the principal the operation acted for
	Payload   string      // human-readable operation summary
	CreatedAt time.Time
}

// Writer appends events to a journal sink.
type Writer interface {
	Append(ctx context.Context, e *Event) error
}

// ComputeEventID computes a deterministic event_id using SHA256.
// Formula: SHA256(op|actor|payload|seq)
// Returns hex-encoded hash (64 characters).
func ComputeEventID(op string, actor domain.Name, payload string, seq uint64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", op, actor, payload, seq)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// NewEvent builds an Event with its EventID and CreatedAt filled in.
func NewEvent(op string, actor domain.Name, payload string, seq uint64) *Event {
	return &Event{
		EventID:   ComputeEventID(op, actor, payload, seq),
		Seq:       seq,
		Op:        op,
		Actor:     actor,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Nop is a Writer that discards every event.
type Nop struct{}

// Append discards the event.
func (Nop) Append(context.Context, *Event) error { return nil }

var _ Writer = Nop{}

// MultiWriter fans one event out to several sinks; the first error wins but
// all sinks are attempted.
type MultiWriter []Writer

// Append writes the event to every sink.
func (m MultiWriter) Append(ctx context.Context, e *Event) error {
	var firstErr error
	for _, w := range m {
		if err := w.Append(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Writer = MultiWriter(nil)
