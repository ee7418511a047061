package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yieldvault/ledger/pkg/eventbus"
)

// MemoryEventBus is a synchronous in-process implementation of eventbus.Bus.
// Handlers registered for eventbus.All receive every event.
type MemoryEventBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []eventbus.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEventBus{
		handlers:  make(map[string][]eventbus.HandlerFunc),
		logger:    logger.With("bus", "memory"),
		published: make([]eventbus.Event, 0),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to every handler registered for its type and to
// wildcard handlers. Handler failures are logged and never returned.
func (b *MemoryEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := make([]eventbus.HandlerFunc, 0, len(b.handlers[event.Type])+len(b.handlers[eventbus.All]))
	handlers = append(handlers, b.handlers[event.Type]...)
	handlers = append(handlers, b.handlers[eventbus.All]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		dispatch(ctx, b.logger, handler, event)
	}
	return nil
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = make([]eventbus.Event, 0)
}

// Published returns a copy of the events emitted so far.
func (b *MemoryEventBus) Published() []eventbus.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]eventbus.Event, len(b.published))
	copy(out, b.published)
	return out
}

// dispatch runs one handler, containing panics and logging errors.
func dispatch(ctx context.Context, logger *slog.Logger, handler eventbus.HandlerFunc, event eventbus.Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered in event handler", "type", event.Type, "panic", r)
			ok = false
		}
	}()
	if err := handler(ctx, event); err != nil {
		logger.Error("failed to process event", "type", event.Type, "event_id", event.ID, "error", err)
		return false
	}
	return true
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
