package events

import (
	"context"
	"sync"
)

// subscriberBuffer is how many events a slow client may fall behind before
// we start dropping for it. Dropping is fine: the tablet re-polls the full
// list on reconnect.
const subscriberBuffer = 32

// Hub is the single-instance Bus: in-process fan-out keyed by shop.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

type subscription struct {
	ch   chan Event
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{})}
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[ev.ShopID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, shopID string) (<-chan Event, func(), error) {
	sub := &subscription{ch: make(chan Event, subscriberBuffer)}
	done := make(chan struct{})

	h.mu.Lock()
	if h.subs[shopID] == nil {
		h.subs[shopID] = make(map[*subscription]struct{})
	}
	h.subs[shopID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs[shopID], sub)
			if len(h.subs[shopID]) == 0 {
				delete(h.subs, shopID)
			}
			h.mu.Unlock()
			close(sub.ch)
			close(done)
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return sub.ch, cancel, nil
}

// Subscribers reports how many listeners a shop has.
func (h *Hub) Subscribers(shopID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[shopID])
}
