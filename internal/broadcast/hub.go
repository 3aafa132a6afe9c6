package broadcast

import (
	"sync"

	"barbapro/internal/log"
)

// Broadcaster delivers events to everyone listening. Implementations
// must never block the caller; a mutation commit cannot wait on a slow
// consumer.
type Broadcaster interface {
	Publish(event Event)
}

// subscriber buffer depth. A client this far behind gets events dropped;
// the next full_sync brings it current again.
const subscriberBuffer = 16

// Hub fans events out to in-process subscribers over buffered channels.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
	logger *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan Event]struct{}),
		logger: logger.WithComponent(log.ComponentBroadcast),
	}
}

// Subscribe registers a listener. The returned cancel func must be
// called when the listener goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
// Subscribers with full buffers miss it.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.logger.Warn("Dropping event for slow subscriber",
				log.FieldEventKind, event.Kind)
		}
	}
}

// SubscriberCount reports how many listeners are registered.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops all subscribers and closes their channels. Publish after
// Close is a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// Fanout publishes to several broadcasters in order. It lets the HTTP
// event stream and the AMQP bridge both see every event.
type Fanout []Broadcaster

func (f Fanout) Publish(event Event) {
	for _, b := range f {
		b.Publish(event)
	}
}
