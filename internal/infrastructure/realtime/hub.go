package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/calldeck-team/calldeck/internal/adapter/dto/call"
	"github.com/calldeck-team/calldeck/internal/domain/entities"
)

// Hub fans finalized call records out to every connected subscriber.
// Publishing is fire-and-forget: a slow subscriber's buffer fills and drops
// messages rather than blocking the publisher, and new connections are never
// blocked by an in-flight broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[chan []byte]struct{}),
		logger:  logger,
	}
}

// Subscribe registers a new subscriber and returns its message channel
func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Info("subscriber connected", zap.Int("subscribers", count))
	}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel
func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, ch)
	count := len(h.clients)
	h.mu.Unlock()
	close(ch)

	if h.logger != nil {
		h.logger.Info("subscriber disconnected", zap.Int("subscribers", count))
	}
}

// SubscriberCount reports the current subscriber set size
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishNewCall broadcasts a finalized record to the current subscriber set
func (h *Hub) PublishNewCall(record *entities.CallRecord) {
	h.broadcastEvent(NewCallEvent{
		Event: newEvent("newCall"),
		Call:  call.FromEntity(record),
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("event marshal error", zap.Error(err))
		}
		return
	}
	h.broadcast(payload)
}

func (h *Hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}
