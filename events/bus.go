// Package events fans ledger change events out to in-process subscribers
// and, when configured, to an AMQP exchange. The bus decouples the store
// from its consumers: the web server invalidates caches and pushes SSE
// notifications, the publisher mirrors commits to a broker, and neither
// blocks a ledger write.
package events

import (
	"sync"

	"finledger/ledger"
)

// Bus is an in-process fan-out for ledger change events. Subscribers receive
// events on their own buffered channel; a slow subscriber drops events
// rather than stalling the rest.
type Bus struct {
	mu          sync.Mutex
	subscribers map[chan ledger.ChangeEvent]struct{}
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[chan ledger.ChangeEvent]struct{})}
}

// Attach wires the bus to a store so every committed write is published.
func (b *Bus) Attach(store *ledger.Store) {
	store.Subscribe(b.Publish)
}

// Subscribe registers a new subscriber and returns its channel plus a cancel
// function. The channel is closed on cancel.
func (b *Bus) Subscribe() (<-chan ledger.ChangeEvent, func()) {
	ch := make(chan ledger.ChangeEvent, 16)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (b *Bus) Publish(ev ledger.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full, drop.
		}
	}
}
