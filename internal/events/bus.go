// Package events is the typed publish/subscribe layer between the engine
// components and the view binder.
package events

import "sync"

// Event is implemented by every message published on a Bus.
type Event interface {
	Kind() string
}

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
// Publishing from inside a handler is allowed; the nested event is delivered
// before the outer Publish returns.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every current subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// Len returns the number of subscribers
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// On subscribes fn to events of type T only.
func On[T Event](b *Bus, fn func(T)) func() {
	return b.Subscribe(func(ev Event) {
		if typed, ok := ev.(T); ok {
			fn(typed)
		}
	})
}
