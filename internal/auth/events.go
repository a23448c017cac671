package auth

import (
	"sync"
	"time"
)

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
	EventResolved  EventType = "resolved"
)

// Event is one session transition.
type Event struct {
	Type    EventType
	Session Session
	At      time.Time
}

// Listeners is a set of session-change callbacks.
type Listeners struct {
	mu     sync.RWMutex
	nextID uint64
	fns    map[uint64]func(Event)
}

func NewListeners() *Listeners {
	return &Listeners{fns: make(map[uint64]func(Event))}
}

// Subscribe adds fn. The returned function removes it; extra calls are no-ops.
func (l *Listeners) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

// Len returns the number of active listeners.
func (l *Listeners) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}

// publish calls listeners outside the lock so they may unsubscribe.
func (l *Listeners) publish(e Event) {
	l.mu.RLock()
	fns := make([]func(Event), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}
