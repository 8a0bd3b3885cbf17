// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"sync"
)

// MemoryBus is the in-process Bus: a per-session handler registry.
// Publish invokes handlers synchronously, so per-session event order
// matches publish order.
type MemoryBus struct {
	mu       sync.RWMutex
	next     int
	handlers map[string]map[int]Handler // sessionID -> subscription -> handler
	closed   bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{handlers: make(map[string]map[int]Handler)}
}

func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	subs := make([]Handler, 0, len(b.handlers[ev.SessionID]))
	for _, h := range b.handlers[ev.SessionID] {
		subs = append(subs, h)
	}
	b.mu.RUnlock()

	for _, h := range subs {
		h(ev)
	}
	return nil
}

func (b *MemoryBus) Subscribe(sessionID string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.next
	b.next++
	if b.handlers[sessionID] == nil {
		b.handlers[sessionID] = make(map[int]Handler)
	}
	b.handlers[sessionID][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[sessionID], id)
			if len(b.handlers[sessionID]) == 0 {
				delete(b.handlers, sessionID)
			}
		})
	}
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = make(map[string]map[int]Handler)
	return nil
}
