package queries

import (
	"context"
	"sync"
)

type registration func(ctx context.Context, q Query) (any, error)

// InMemoryBus answers queries by key.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]registration
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]registration)}
}

// RegisterHandler binds a typed handler to a query key on the bus.
func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[key] = func(ctx context.Context, q Query) (any, error) {
		typed, ok := q.(Q)
		if !ok {
			return nil, ErrInvalidQuery
		}
		return handler.Handle(ctx, typed)
	}
}

func (b *InMemoryBus) Ask(ctx context.Context, q Query) (any, error) {
	b.mu.RLock()
	reg, ok := b.handlers[q.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrHandlerNotFound
	}
	return reg(ctx, q)
}
