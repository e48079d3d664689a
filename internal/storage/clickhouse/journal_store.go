package clickhouse

import (
	"context"
	"fmt"
	"time"

	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/journal"
)

// JournalStore persists committed-operation events in ClickHouse.
type JournalStore struct {
	conn *Conn
}

// NewJournalStore creates a new JournalStore.
func NewJournalStore(conn *Conn) *JournalStore {
	return &JournalStore{conn: conn}
}

// Compile-time interface check.
var _ journal.Writer = (*JournalStore)(nil)

// Append writes one event to journal_events.
func (s *JournalStore) Append(ctx context.Context, e *journal.Event) error {
	query := `
		INSERT INTO journal_events (event_id, seq, op, actor, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		e.EventID,
		e.Seq,
		e.Op,
		string(e.Actor),
		e.Payload,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert journal event: %w", err)
	}
	return nil
}

// GetByActor retrieves all events for an actor, ordered by sequence ASC.
func (s *JournalStore) GetByActor(ctx context.Context, actor domain.Name) ([]*journal.Event, error) {
	query := `
		SELECT event_id, seq, op, actor, payload, created_at
		FROM journal_events
		WHERE actor = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, string(actor))
	if err != nil {
		return nil, fmt.Errorf("get journal events by actor: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetRecent retrieves the latest limit events, newest first.
func (s *JournalStore) GetRecent(ctx context.Context, limit int) ([]*journal.Event, error) {
	query := `
		SELECT event_id, seq, op, actor, payload, created_at
		FROM journal_events
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent journal events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows eventRows) ([]*journal.Event, error) {
	var events []*journal.Event

	for rows.Next() {
		var e journal.Event
		var actor string
		var createdAt time.Time

		err := rows.Scan(&e.EventID, &e.Seq, &e.Op, &actor, &e.Payload, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan journal event row: %w", err)
		}

		e.Actor = domain.Name(actor)
		e.CreatedAt = createdAt
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal event rows: %w", err)
	}

	return events, nil
}
