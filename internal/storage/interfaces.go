package storage

import (
	"context"

	"token-sale-ledger/internal/domain"
)

// EventStore provides access to sale_events storage. Events are
// append-only: one row per state transition, never updated or deleted.
type EventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
	Insert(ctx context.Context, ev *domain.SaleEvent) error

	// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, eventID string) (*domain.SaleEvent, error)

	// GetByKind retrieves all events of a kind, ordered by seq ASC.
	GetByKind(ctx context.Context, kind string) ([]*domain.SaleEvent, error)

	// GetByActor retrieves all events for an actor, ordered by seq ASC.
	GetByActor(ctx context.Context, actor string) ([]*domain.SaleEvent, error)

	// GetBySeqRange retrieves events with seq within [start, end]
	// (inclusive), ordered by seq ASC.
	GetBySeqRange(ctx context.Context, start, end uint64) ([]*domain.SaleEvent, error)

	// GetAll retrieves every event, ordered by seq ASC.
	GetAll(ctx context.Context) ([]*domain.SaleEvent, error)
}
