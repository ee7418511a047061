// Package events streams ledger events to connected clients as
// server-sent events.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/eventbus"
)

const bufferSize = 16

type subscriber struct {
	accountID uuid.UUID
	// all receives every account's events.
	all bool
	ch  chan []byte
}

// Hub fans bus events out to stream subscribers. A subscriber whose buffer
// is full misses the event rather than blocking the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewHub registers a hub on bus for every event type.
func NewHub(bus eventbus.Bus) *Hub {
	h := &Hub{subs: make(map[*subscriber]struct{})}
	bus.Register(eventbus.All, h.publish)
	return h
}

// Subscribe returns a channel of encoded events for accountID, or for every
// account when all is set, and a function that ends the subscription.
func (h *Hub) Subscribe(accountID uuid.UUID, all bool) (<-chan []byte, func()) {
	s := &subscriber{accountID: accountID, all: all, ch: make(chan []byte, bufferSize)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
		})
	}
}

// Len reports the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) publish(_ context.Context, e eventbus.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if !s.all && s.accountID != e.AccountID {
			continue
		}
		select {
		case s.ch <- data:
		default:
		}
	}
	return nil
}
