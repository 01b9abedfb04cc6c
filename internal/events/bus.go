package events

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Type identifies a kind of domain event.
type Type string

const (
	FailCreated    Type = "fail.created"
	CommentCreated Type = "comment.created"
	ReactionGiven  Type = "reaction.given"
	BadgeUnlocked  Type = "badge.unlocked"
)

// Event carries the minimum a subscriber needs: who acted, what they acted
// on, and (for reactions and comments) who was on the receiving end.
type Event struct {
	Type        Type
	ActorID     uuid.UUID
	SubjectID   uuid.UUID
	RecipientID *uuid.UUID
	Payload     any
}

// Handler processes one event. Handlers run synchronously on the
// publisher's goroutine; a panic inside a handler is recovered and logged
// so it cannot take down the publisher or the remaining subscribers.
type Handler func(Event)

// Subscription is the handle returned by Subscribe. Unsubscribe is
// idempotent.
type Subscription struct {
	bus       *Bus
	eventType Type
	id        uint64
	once      sync.Once
}

func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.eventType, s.id)
	})
}

// Bus is an in-process publish/subscribe channel. Delivery is synchronous,
// in subscription order, at most once per Publish call. Nothing is
// persisted or replayed.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Type][]*subscriber
}

type subscriber struct {
	id      uint64
	handler Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Type][]*subscriber)}
}

func (b *Bus) Subscribe(t Type, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.subs[t] = append(b.subs[t], &subscriber{id: b.nextID, handler: h})

	return &Subscription{bus: b, eventType: t, id: b.nextID}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	// Copy the slice header so a handler that subscribes or unsubscribes
	// during delivery does not mutate the list we are iterating.
	current := make([]*subscriber, len(b.subs[e.Type]))
	copy(current, b.subs[e.Type])
	b.mu.RUnlock()

	for _, sub := range current {
		b.deliver(sub, e)
	}
}

func (b *Bus) deliver(sub *subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event subscriber panicked on %s: %v", e.Type, r)
		}
	}()
	sub.handler(e)
}

func (b *Bus) remove(t Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[t]
	for i, sub := range subs {
		if sub.id == id {
			b.subs[t] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
