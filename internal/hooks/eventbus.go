// Copyright 2026 The powermodes Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hooks

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventBus distributes apply-time events to subscribers. Publishing is
// synchronous; subscribers that need to run long actions dispatch their own
// goroutines (the hook manager does).
type EventBus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[Event][]*subscription
}

type subscription struct {
	id       int
	callback func(*EventContext)
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[Event][]*subscription)}
}

// Subscribe registers a callback for one event type and returns an
// unsubscribe function.
func (b *EventBus) Subscribe(event Event, callback func(*EventContext)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, callback: callback}
	b.subscribers[event] = append(b.subscribers[event], sub)

	id := sub.id
	return func() { b.unsubscribe(event, id) }
}

func (b *EventBus) unsubscribe(event Event, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[event]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ctx to every subscriber of its event type. A panicking
// subscriber is contained; one broken hook must not take the apply down.
func (b *EventBus) Publish(ctx *EventContext) {
	b.mu.RLock()
	subs := make([]*subscription, len(b.subscribers[ctx.Event]))
	copy(subs, b.subscribers[ctx.Event])
	b.mu.RUnlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("event subscriber panicked: %v", r)
				}
			}()
			sub.callback(ctx)
		}()
	}
}
