package postgres

import (
	"context"
	"fmt"

	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `event_id, seq, kind, actor, beneficiary, base_amount, token_amount, ref_id, timestamp`

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(ctx context.Context, ev *domain.SaleEvent) error {
	if ev == nil || ev.EventID == "" || ev.Kind == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO sale_events (
			event_id, seq, kind, actor, beneficiary, base_amount, token_amount, ref_id, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		ev.EventID,
		int64(ev.Seq),
		ev.Kind,
		ev.Actor,
		ev.Beneficiary,
		int64(ev.BaseAmount),
		int64(ev.TokenAmount),
		ev.RefID,
		ev.Timestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert sale event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(ctx context.Context, eventID string) (*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE event_id = $1`

	row := s.pool.QueryRow(ctx, query, eventID)
	ev, err := scanEvent(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get sale event by id: %w", err)
	}
	return ev, nil
}

// GetByKind retrieves all events of a kind, ordered by seq ASC.
func (s *EventStore) GetByKind(ctx context.Context, kind string) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE kind = $1 ORDER BY seq ASC`
	return s.queryEvents(ctx, query, kind)
}

// GetByActor retrieves all events for an actor, ordered by seq ASC.
func (s *EventStore) GetByActor(ctx context.Context, actor string) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE actor = $1 ORDER BY seq ASC`
	return s.queryEvents(ctx, query, actor)
}

// GetBySeqRange retrieves events with seq within [start, end] (inclusive).
func (s *EventStore) GetBySeqRange(ctx context.Context, start, end uint64) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events WHERE seq >= $1 AND seq <= $2 ORDER BY seq ASC`
	return s.queryEvents(ctx, query, int64(start), int64(end))
}

// GetAll retrieves every event, ordered by seq ASC.
func (s *EventStore) GetAll(ctx context.Context) ([]*domain.SaleEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM sale_events ORDER BY seq ASC`
	return s.queryEvents(ctx, query)
}

func (s *EventStore) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.SaleEvent, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sale events: %w", err)
	}
	defer rows.Close()

	var result []*domain.SaleEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale event: %w", err)
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale events: %w", err)
	}
	return result, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanEvent.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.SaleEvent, error) {
	var (
		ev          domain.SaleEvent
		seq         int64
		baseAmount  int64
		tokenAmount int64
	)
	if err := row.Scan(
		&ev.EventID,
		&seq,
		&ev.Kind,
		&ev.Actor,
		&ev.Beneficiary,
		&baseAmount,
		&tokenAmount,
		&ev.RefID,
		&ev.Timestamp,
	); err != nil {
		return nil, err
	}
	ev.Seq = uint64(seq)
	ev.BaseAmount = uint64(baseAmount)
	ev.TokenAmount = uint64(tokenAmount)
	return &ev, nil
}
