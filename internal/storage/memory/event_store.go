package memory

import (
	"context"
	"sort"
	"sync"

	"token-sale-ledger/internal/domain"
	"token-sale-ledger/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SaleEvent // keyed by event_id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make(map[string]*domain.SaleEvent),
	}
}

var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if event_id exists.
func (s *EventStore) Insert(_ context.Context, ev *domain.SaleEvent) error {
	if ev == nil || ev.EventID == "" || ev.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[ev.EventID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *ev
	s.data[ev.EventID] = &copy
	return nil
}

// GetByID retrieves an event by its ID. Returns ErrNotFound if not exists.
func (s *EventStore) GetByID(_ context.Context, eventID string) (*domain.SaleEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.data[eventID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *ev
	return &copy, nil
}

// GetByKind retrieves all events of a kind, ordered by seq ASC.
func (s *EventStore) GetByKind(_ context.Context, kind string) ([]*domain.SaleEvent, error) {
	return s.filter(func(ev *domain.SaleEvent) bool { return ev.Kind == kind }), nil
}

// GetByActor retrieves all events for an actor, ordered by seq ASC.
func (s *EventStore) GetByActor(_ context.Context, actor string) ([]*domain.SaleEvent, error) {
	return s.filter(func(ev *domain.SaleEvent) bool { return ev.Actor == actor }), nil
}

// GetBySeqRange retrieves events with seq within [start, end] (inclusive).
func (s *EventStore) GetBySeqRange(_ context.Context, start, end uint64) ([]*domain.SaleEvent, error) {
	return s.filter(func(ev *domain.SaleEvent) bool { return ev.Seq >= start && ev.Seq <= end }), nil
}

// GetAll retrieves every event, ordered by seq ASC.
func (s *EventStore) GetAll(_ context.Context) ([]*domain.SaleEvent, error) {
	return s.filter(func(*domain.SaleEvent) bool { return true }), nil
}

func (s *EventStore) filter(keep func(*domain.SaleEvent) bool) []*domain.SaleEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SaleEvent
	for _, ev := range s.data {
		if keep(ev) {
			copy := *ev
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result
}
