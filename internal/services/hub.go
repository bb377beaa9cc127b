package services

import (
	"sync"

	"raffle/internal/models"

	"github.com/google/logger"
)

const subscriberBuffer = 64

// Subscription receives draw events until it is cancelled or the hub closes.
type Subscription struct {
	C      <-chan models.DrawEvent
	ch     chan models.DrawEvent
	hub    *Hub
	closed bool
}

// Cancel detaches the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.hub.remove(s)
}

// Hub fans draw events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewHub returns a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber. On a closed hub the returned
// channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan models.DrawEvent, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.closed = true
		close(ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers ev to every subscriber that has room for it.
func (h *Hub) Publish(ev models.DrawEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			logger.Warningf("draw event %s dropped: subscriber backpressure", ev.Type)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		sub.closed = true
		close(sub.ch)
		delete(h.subs, sub)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
	delete(h.subs, sub)
}
