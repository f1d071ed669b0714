package outbox

import (
	"context"
	"sync"

	appoutbox "livonto/internal/app/outbox"
	"livonto/internal/app/uow"
)

type sink interface {
	Append(ctx context.Context, records []appoutbox.EventRecord) error
}

// Staged buffers event records during a command and hands them to the
// durable store once the surrounding transaction has committed. Records are
// keyed by the context's unit of work so concurrent commands cannot drain
// each other's staged events.
type Staged struct {
	store sink

	mu      sync.Mutex
	byUnit  map[uow.UnitOfWork][]appoutbox.EventRecord
	unbound []appoutbox.EventRecord
}

func NewStaged(store *Store) *Staged {
	return &Staged{store: store, byUnit: make(map[uow.UnitOfWork][]appoutbox.EventRecord)}
}

func (s *Staged) Add(ctx context.Context, record appoutbox.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if unit, ok := uow.FromContext(ctx); ok {
		s.byUnit[unit] = append(s.byUnit[unit], record)
		return nil
	}
	s.unbound = append(s.unbound, record)
	return nil
}

func (s *Staged) Flush(ctx context.Context) error {
	records := s.take(ctx)
	if len(records) == 0 {
		return nil
	}
	return s.store.Append(ctx, records)
}

// Discard drops the records staged for the context's command, used when the
// command fails and its transaction rolls back.
func (s *Staged) Discard(ctx context.Context) {
	s.take(ctx)
}

func (s *Staged) take(ctx context.Context) []appoutbox.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if unit, ok := uow.FromContext(ctx); ok {
		records := s.byUnit[unit]
		delete(s.byUnit, unit)
		return records
	}
	records := s.unbound
	s.unbound = nil
	return records
}

var _ appoutbox.Outbox = (*Staged)(nil)
