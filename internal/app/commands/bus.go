package commands

import (
	"context"
	"sync"
)

type registration func(ctx context.Context, cmd Command) (any, error)

// InMemoryBus dispatches by command key.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string]registration
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string]registration)}
}

// RegisterHandler binds a typed handler to a command key on the bus.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.handlers[key] = func(ctx context.Context, cmd Command) (any, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, ErrInvalidCommand
		}
		return handler.Handle(ctx, typed)
	}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	b.mu.RLock()
	reg, ok := b.handlers[cmd.Key()]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrHandlerNotFound
	}
	return reg(ctx, cmd)
}
