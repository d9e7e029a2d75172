package clickhouse

import (
	"context"
	"fmt"

	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse. This is the
// analytics path consumed by the off-chain indexer.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `event_id, seq, kind, actor, beneficiary, base_amount, token_amount, ref_id, timestamp`

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(ctx context.Context, ev *domain.SaleEvent) error {
	if ev == nil || ev.EventID == "" || ev.Kind == "" {
		return storage.ErrInvalidInput
	}

	// ReplacingMergeTree will not reject duplicates at insert time, so we
	// keep append-only semantics with an explicit existence check.
	exists, err := s.exists(ctx, ev.EventID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO sale_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		ev.EventID,
		ev.Seq,
		ev.Kind,
		ev.Actor,
		ev.Beneficiary,
		ev.BaseAmount,
		ev.TokenAmount,
		ev.RefID,
		ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert sale event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(ctx context.Context, eventID string) (*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE event_id = ? LIMIT 1`

	events, err := s.queryEvents(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, storage.ErrNotFound
	}
	return events[0], nil
}

// GetByKind retrieves all events of a kind, ordered by seq ASC.
func (s *EventStore) GetByKind(ctx context.Context, kind string) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE kind = ? ORDER BY seq ASC`
	return s.queryEvents(ctx, query, kind)
}

// GetByActor retrieves all events for an actor, ordered by seq ASC.
func (s *EventStore) GetByActor(ctx context.Context, actor string) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE actor = ? ORDER BY seq ASC`
	return s.queryEvents(ctx, query, actor)
}

// GetBySeqRange retrieves events with seq within [start, end] (inclusive).
func (s *EventStore) GetBySeqRange(ctx context.Context, start, end uint64) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE seq >= ? AND seq <= ? ORDER BY seq ASC`
	return s.queryEvents(ctx, query, start, end)
}

// GetAll retrieves every event, ordered by seq ASC.
func (s *EventStore) GetAll(ctx context.Context) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events ORDER BY seq ASC`
	return s.queryEvents(ctx, query)
}

func (s *EventStore) exists(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT count() FROM sale_events WHERE event_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *EventStore) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.SaleEvent, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sale events: %w", err)
	}
	defer rows.Close()

	var result []*domain.SaleEvent
	for rows.Next() {
		var ev domain.SaleEvent
		if err := rows.Scan(
			&ev.EventID,
			&ev.Seq,
			&ev.Kind,
			&ev.Actor,
			&ev.Beneficiary,
			&ev.BaseAmount,
			&ev.TokenAmount,
			&ev.RefID,
			&ev.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan sale event: %w", err)
		}
		result = append(result, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale events: %w", err)
	}
	return result, nil
}
