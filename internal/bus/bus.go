// Package bus implements the process-wide publish/subscribe channel used to
// hand picked map coordinates back to whichever form is waiting for them.
// Subscribers hold an explicit handle, so teardown cannot leave a dangling
// callback behind.
package bus

import "sync"

// LocationEvent carries the result of the map-picking sub-flow.
type LocationEvent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Subscription is one listener's handle on the bus. Events arrive on C until
// Cancel is called, after which C is closed and nothing more is delivered.
type Subscription struct {
	C    <-chan LocationEvent
	ch   chan LocationEvent
	bus  *LocationBus
	once sync.Once
}

// Cancel removes the subscription and closes its channel. Safe to call more
// than once and safe to race with Publish.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.remove(s)
	})
}

// LocationBus dispatches LocationEvents to current subscribers. Publishing
// never blocks: a subscriber that is not draining its channel misses events
// rather than stalling the publisher.
type LocationBus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewLocationBus creates an empty bus.
func NewLocationBus() *LocationBus {
	return &LocationBus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new listener. Each call returns a distinct
// subscription; a consumer subscribes once on mount and cancels on unmount.
func (b *LocationBus) Subscribe() *Subscription {
	ch := make(chan LocationEvent, 1)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers the event to every live subscriber.
func (b *LocationBus) Publish(ev LocationEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *LocationBus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *LocationBus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}
