package events

import (
	"encoding/json"
	"sync"
)

// Handler receives the raw payload of one push notification.
type Handler func(payload json.RawMessage)

// Bus multiplexes server push notifications to any number of
// subscribers per event name. Delivery is synchronous and in arrival
// order within one event name; nothing is buffered or replayed for
// late subscribers.
type Bus struct {
	lock   sync.Mutex
	nextID uint64
	subs   map[string][]*Subscription
}

// Subscription is one subscriber's registration on the bus. Cancel
// stops delivery to this subscriber only.
type Subscription struct {
	id      uint64
	event   string
	handler Handler
	bus     *Bus
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]*Subscription),
	}
}

// Subscribe registers a handler for the named push event.
func (b *Bus) Subscribe(event string, handler Handler) *Subscription {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.nextID++
	sub := &Subscription{
		id:      b.nextID,
		event:   event,
		handler: handler,
		bus:     b,
	}
	b.subs[event] = append(b.subs[event], sub)
	return sub
}

// Publish delivers a notification to every current subscriber of the
// event, in subscription order. Handlers run on the caller's goroutine
// so arrival order is preserved per event name.
func (b *Bus) Publish(event string, payload json.RawMessage) {
	b.lock.Lock()
	handlers := make([]Handler, 0, len(b.subs[event]))
	for _, sub := range b.subs[event] {
		handlers = append(handlers, sub.handler)
	}
	b.lock.Unlock()

	for _, handler := range handlers {
		handler(payload)
	}
}

// Cancel removes the subscription from the bus. It is safe to call
// more than once.
func (s *Subscription) Cancel() {
	s.bus.lock.Lock()
	defer s.bus.lock.Unlock()
	subs := s.bus.subs[s.event]
	for i, sub := range subs {
		if sub.id == s.id {
			s.bus.subs[s.event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
