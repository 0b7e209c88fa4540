package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"feeledger/internal/models"
)

// Change tags the kind of committed mutation.
type Change string

// Change tags.
const (
	ChangeCreate Change = "CREATE"
	ChangeEdit   Change = "EDIT"
	ChangeVoid   Change = "VOID"
	ChangeImport Change = "IMPORT"
)

// KindLedgerChanged is the single event kind delivered to observers.
const KindLedgerChanged = "ledger_changed"

// Event is a cache-invalidation hint. The payload carries no correctness
// guarantee; observers are expected to re-fetch the ledger view on receipt.
type Event struct {
	Kind        string              `json:"type"`
	Change      Change              `json:"change"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// Hub broadcasts ledger-change events to all registered observers. Publishing
// never blocks the mutation path: events flow through a buffered outbound
// queue drained by a single dispatcher, and observers that cannot keep up
// have events dropped.
type Hub struct {
	mu        sync.RWMutex
	observers map[*Observer]struct{}
	queue     chan Event
	logger    *zap.Logger
}

// Observer receives hub events on a buffered channel.
type Observer struct {
	events chan Event
}

// Events returns the observer's receive channel. It is closed on unsubscribe.
func (o *Observer) Events() <-chan Event {
	return o.events
}

// NewHub builds a hub with the given outbound queue size.
func NewHub(queueSize int, logger *zap.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Hub{
		observers: make(map[*Observer]struct{}),
		queue:     make(chan Event, queueSize),
		logger:    logger,
	}
}

// Subscribe registers a new observer with the given buffer size.
func (h *Hub) Subscribe(buffer int) *Observer {
	if buffer <= 0 {
		buffer = 16
	}
	o := &Observer{events: make(chan Event, buffer)}
	h.mu.Lock()
	h.observers[o] = struct{}{}
	h.mu.Unlock()
	return o
}

// Unsubscribe removes the observer and closes its channel.
func (h *Hub) Unsubscribe(o *Observer) {
	h.mu.Lock()
	_, ok := h.observers[o]
	if ok {
		delete(h.observers, o)
	}
	h.mu.Unlock()
	if ok {
		close(o.events)
	}
}

// Publish enqueues a ledger-changed event. It never blocks; when the outbound
// queue is full the event is dropped, which is acceptable because delivery is
// not guaranteed.
func (h *Hub) Publish(change Change, tx *models.Transaction) {
	event := Event{Kind: KindLedgerChanged, Change: change, Transaction: tx}
	select {
	case h.queue <- event:
	default:
		h.logger.Warn("notify queue full, dropping event", zap.String("change", string(change)))
	}
}

// Run drains the outbound queue and fans events out until the context ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.queue:
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for o := range h.observers {
		select {
		case o.events <- event:
		default:
			// Slow observer; it will re-fetch on the next event it does see.
		}
	}
}
