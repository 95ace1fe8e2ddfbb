package events

import "sync"

// Handler receives published events.
type Handler func(Event)

// Subscription removes its handler when cancelled.
type Subscription struct {
	bus *Bus
	id  uint64
}

// Cancel detaches the handler. Safe to call more than once.
func (s Subscription) Cancel() {
	if s.bus == nil {
		return
	}
	s.bus.unsubscribe(s.id)
}

type subscriber struct {
	id      uint64
	types   map[Type]struct{}
	handler Handler
}

// Bus dispatches events to subscribers on the publishing goroutine, in
// subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for the given event types, or for every event
// when no type is given.
func (b *Bus) Subscribe(handler Handler, types ...Type) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := subscriber{id: b.nextID, handler: handler}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}
	b.subs = append(b.subs, sub)
	return Subscription{bus: b, id: sub.id}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers event to every matching subscriber.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.types != nil {
			if _, ok := sub.types[event.Type]; !ok {
				continue
			}
		}
		sub.handler(event)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
