package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a notification stays active before auto-dismiss.
const DefaultTTL = 4 * time.Second

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 16

// Hub is a Notifier that fans notifications out to subscriber channels and
// keeps the set of active notifications, dismissing each after its TTL.
type Hub struct {
	ttl time.Duration

	mu      sync.Mutex
	subs    []chan Notification
	active  map[string]Notification
	order   []string
	timers  map[string]*time.Timer
	dropped int
	closed  bool
}

// NewHub creates a hub. A ttl <= 0 uses DefaultTTL.
func NewHub(ttl time.Duration) *Hub {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Hub{
		ttl:    ttl,
		active: make(map[string]Notification),
		timers: make(map[string]*time.Timer),
	}
}

// Subscribe returns a channel that receives every later notification.
// The channel is closed by Close. Slow subscribers miss notifications
// rather than block the sender.
func (h *Hub) Subscribe() <-chan Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Notification, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	h.subs = append(h.subs, ch)
	return ch
}

// Notify implements Notifier.
func (h *Hub) Notify(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.active[n.ID] = n
	h.order = append(h.order, n.ID)
	id := n.ID
	h.timers[id] = time.AfterFunc(h.ttl, func() { h.Dismiss(id) })

	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.dropped++
		}
	}
}

// Dismiss removes a notification from the active set. Unknown IDs are ignored.
func (h *Hub) Dismiss(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.active[id]; !ok {
		return
	}
	delete(h.active, id)
	if t, ok := h.timers[id]; ok {
		t.Stop()
		delete(h.timers, id)
	}
	for i, x := range h.order {
		if x == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Active returns the notifications not yet dismissed, oldest first.
func (h *Hub) Active() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Notification, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.active[id])
	}
	return out
}

// Dropped returns how many subscriber deliveries were skipped.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Close stops all dismiss timers and closes subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, t := range h.timers {
		t.Stop()
		delete(h.timers, id)
	}
	for _, ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
