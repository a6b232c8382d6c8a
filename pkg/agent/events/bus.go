// Package events provides the in-process pub/sub bus that broadcasts
// typed execution-state events to subscribers (UI bridges, persistence,
// loggers) during task execution.
package events

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Callback handles a single event. A non-nil error propagates to the
// emitter after all subscribers for the event have been dispatched.
type Callback func(ctx context.Context, event types.Event) error

// Subscription is the handle returned by Subscribe. Unsubscribing uses the
// handle so two subscribers sharing the same function value stay distinct.
type Subscription struct {
	topic types.EventType
	cb    Callback
}

// Topic returns the topic this subscription is registered on.
func (s *Subscription) Topic() types.EventType {
	return s.topic
}

// Bus fans out events to all subscribers of a topic. Emit dispatches
// callbacks concurrently and waits for all of them before returning, so
// emitters observe subscriber completion (and the first subscriber error).
type Bus struct {
	mu   sync.RWMutex
	subs map[types.EventType][]*Subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[types.EventType][]*Subscription),
	}
}

// Subscribe registers a callback for a topic and returns its handle.
func (b *Bus) Subscribe(topic types.EventType, cb Callback) *Subscription {
	sub := &Subscription{topic: topic, cb: cb}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], sub)
	return sub
}

// Unsubscribe removes a subscription. Removing a handle that is not
// registered (or was already removed) is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[sub.topic]
	filtered := current[:0]
	for _, s := range current {
		if s != sub {
			filtered = append(filtered, s)
		}
	}
	b.subs[sub.topic] = filtered
}

// SubscriberCount returns the number of subscribers on a topic.
func (b *Bus) SubscriberCount(topic types.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Emit dispatches the event to every subscriber of its topic. Callbacks run
// concurrently and Emit waits for all of them; if any callback fails, the
// first error is returned to the emitter once every callback has finished.
func (b *Bus) Emit(ctx context.Context, event types.Event) error {
	b.mu.RLock()
	subs := make([]*Subscription, len(b.subs[event.Type]))
	copy(subs, b.subs[event.Type])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	g := new(errgroup.Group)
	for _, sub := range subs {
		cb := sub.cb
		g.Go(func() error {
			return cb(ctx, event)
		})
	}
	return g.Wait()
}
