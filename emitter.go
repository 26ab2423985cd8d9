package tinyflag

import (
	"sync"
	"sync/atomic"
)

// ListenerID identifies a registration made with Emitter.On.
type ListenerID uint64

// Emitter is the core's event bus.
type Emitter interface {
	On(event string, fn func(args ...any)) ListenerID
	Off(event string, id ListenerID)
	Emit(event string, args ...any)
}

// EventEmitter is an in-memory Emitter. Handlers run synchronously on the
// emitting goroutine, in registration order.
type EventEmitter struct {
	mu        sync.RWMutex
	listeners map[string][]listener
	counter   atomic.Uint64
}

type listener struct {
	id ListenerID
	fn func(args ...any)
}

// NewEmitter returns an empty EventEmitter.
func NewEmitter() *EventEmitter {
	return &EventEmitter{listeners: make(map[string][]listener)}
}

func (e *EventEmitter) On(event string, fn func(args ...any)) ListenerID {
	id := ListenerID(e.counter.Add(1))
	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], listener{id: id, fn: fn})
	e.mu.Unlock()
	return id
}

func (e *EventEmitter) Off(event string, id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ls := e.listeners[event]
	for i, l := range ls {
		if l.id == id {
			e.listeners[event] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(e.listeners[event]) == 0 {
		delete(e.listeners, event)
	}
}

// Emit calls every handler registered for event. Handlers may call On or
// Off; the set invoked is fixed when Emit starts.
func (e *EventEmitter) Emit(event string, args ...any) {
	e.mu.RLock()
	ls := append([]listener(nil), e.listeners[event]...)
	e.mu.RUnlock()
	for _, l := range ls {
		l.fn(args...)
	}
}

// Count returns the number of handlers registered for event.
func (e *EventEmitter) Count(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}
