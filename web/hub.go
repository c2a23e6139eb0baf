package web

import (
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"github.com/ianlintner/instrument-to-midi/logging"
)

// subscriberBuffer bounds each client's event backlog. A client that falls
// further behind loses events rather than stalling the audio pipeline.
const subscriberBuffer = 64

// statusDebounceInterval coalesces bursts of status updates into one event.
const statusDebounceInterval = 250 * time.Millisecond

// Hub fans monitoring events out to subscribers. Publishing never blocks;
// events to full subscriber buffers are dropped.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event

	statusMu       sync.Mutex
	pendingStatus  string
	debounceStatus func(func())
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers:    make(map[string]chan Event),
		debounceStatus: debounce.New(statusDebounceInterval),
	}
}

// Subscribe registers a new client and returns its id and event channel.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	logging.Debug("monitor client subscribed", logging.Fields{"client": id})
	return id, ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		close(ch)
		logging.Debug("monitor client unsubscribed", logging.Fields{"client": id})
	}
}

// Publish delivers an event to every subscriber without blocking.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// Slow client; the pipeline must not wait for it.
		}
	}
}

// PublishStatus publishes a status message, coalescing rapid updates so only
// the most recent one in a burst is delivered.
func (h *Hub) PublishStatus(message string) {
	h.statusMu.Lock()
	h.pendingStatus = message
	h.statusMu.Unlock()

	h.debounceStatus(func() {
		h.statusMu.Lock()
		msg := h.pendingStatus
		h.statusMu.Unlock()
		h.Publish(StatusEvent(msg))
	})
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
