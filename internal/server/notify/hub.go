// Package notify fans out posts change events from PostgreSQL
// LISTEN/NOTIFY to every subscribed stream.
package notify

import (
	"sync"

	"github.com/dmitrijs2005/framez/internal/models"
)

// subscriberBuffer bounds how far a slow subscriber may lag. Events beyond
// it are dropped; subscribers treat any event as "re-fetch", so a dropped
// one is covered by the next.
const subscriberBuffer = 16

type subscriber struct {
	ch   chan models.ChangeEvent
	mask models.EventMask
}

// Hub distributes events to subscribers without ever blocking the sender.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscriber)}
}

// Subscribe registers a subscriber for the change types in mask. The
// returned cancel func closes the channel and is safe to call twice.
func (h *Hub) Subscribe(mask models.EventMask) (<-chan models.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan models.ChangeEvent, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = &subscriber{ch: ch, mask: mask}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if s, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(s.ch)
			}
		})
	}
}

// Publish delivers ev to every subscriber whose mask admits it. It returns
// the number of subscribers that missed it because their buffer was full.
func (h *Hub) Publish(ev models.ChangeEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for _, s := range h.subs {
		if !s.mask.Has(ev.Type) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
}
