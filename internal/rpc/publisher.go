// Package rpc streams marketplace events to WebSocket subscribers.
package rpc

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/plip123/nft-marketplace/internal/core/market"
)

// EventMessage is the wire format for one published event.
type EventMessage struct {
	Type  string      `json:"type"`
	Op    string      `json:"op"`
	Seq   uint64      `json:"seq"`
	Time  int64       `json:"time"`
	Event interface{} `json:"event"`
}

// Publisher delivers applied-operation events to subscribers.
type Publisher interface {
	PublishEvents(op string, seq uint64, at time.Time, events []market.Event)
}

// Hub fans events out to connected WebSocket clients. Slow clients are
// dropped rather than allowed to stall the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) PublishEvents(op string, seq uint64, at time.Time, events []market.Event) {
	for _, ev := range events {
		msg := EventMessage{
			Type:  ev.EventName(),
			Op:    op,
			Seq:   seq,
			Time:  at.Unix(),
			Event: ev,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			zap.L().Error("failed to encode event message", zap.String("event", ev.EventName()), zap.Error(err))
			continue
		}
		h.broadcast(data)
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Full send buffer means the client stopped reading.
			go h.remove(c)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NoOpPublisher discards events. Used when the WebSocket listener is off.
type NoOpPublisher struct{}

func (NoOpPublisher) PublishEvents(string, uint64, time.Time, []market.Event) {}
