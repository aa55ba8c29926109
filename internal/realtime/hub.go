package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultQueueSize = 64

var ErrClientGone = errors.New("client not registered")

// Client одно живое подключение; подписки живут ровно столько же
type Client struct {
	id   uint64
	send chan Event
}

func (c *Client) ID() uint64 { return c.id }

// Events is closed when the client is unregistered.
func (c *Client) Events() <-chan Event { return c.send }

// Hub in-process брокер: таблица подписок на каждое подключение
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]map[string]struct{}
	channels  map[string]map[*Client]struct{}
	queueSize int
	nextID    atomic.Uint64
	dropped   atomic.Uint64
	logger    *slog.Logger
}

func NewHub(logger *slog.Logger, queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:   make(map[*Client]map[string]struct{}),
		channels:  make(map[string]map[*Client]struct{}),
		queueSize: queueSize,
		logger:    logger,
	}
}

var _ EventBus = (*Hub)(nil)

func (h *Hub) Register() *Client {
	c := &Client{id: h.nextID.Add(1), send: make(chan Event, h.queueSize)}
	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	h.mu.Unlock()
	return c
}

// Unregister drops every subscription of c and closes its queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[c]
	if !ok {
		return
	}
	for ch := range subs {
		h.removeLocked(c, ch)
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) Join(c *Client, channel string) error {
	if !ValidChannel(channel) {
		return ErrUnknownChannel
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.clients[c]
	if !ok {
		return ErrClientGone
	}
	subs[channel] = struct{}{}
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Client]struct{})
		h.channels[channel] = members
	}
	members[c] = struct{}{}
	return nil
}

func (h *Hub) Leave(c *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.clients[c]; ok {
		delete(subs, channel)
	}
	h.removeLocked(c, channel)
}

func (h *Hub) removeLocked(c *Client, channel string) {
	members, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.channels, channel)
	}
}

// Publish enqueues the event for every current subscriber of channel and
// returns without waiting for delivery. A subscriber whose queue is full
// misses the event.
func (h *Hub) Publish(_ context.Context, channel, eventType string, payload any) error {
	ev := Event{Channel: channel, Type: eventType, Payload: payload, At: time.Now().UTC()}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.channels[channel] {
		select {
		case c.send <- ev:
		default:
			h.dropped.Add(1)
			h.logger.Warn("realtime: subscriber queue full, event dropped",
				"client", c.id, "channel", channel, "type", eventType)
		}
	}
	return nil
}

// deliver sends a control frame to one client only.
func (h *Hub) deliver(c *Client, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- ev:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
