package changefeed

import (
	"context"
	"sync"
)

// Local is an in-process Feed, used when no NATS server is reachable and in tests.
type Local struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Change)
	closed   bool
}

func NewLocal() *Local {
	return &Local{handlers: make(map[int]func(Change))}
}

func (l *Local) Publish(_ context.Context, change Change) error {
	l.mu.RLock()
	handlers := make([]func(Change), 0, len(l.handlers))
	for _, h := range l.handlers {
		handlers = append(handlers, h)
	}
	l.mu.RUnlock()

	for _, h := range handlers {
		h(change)
	}
	return nil
}

func (l *Local) Subscribe(handler func(Change)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}

	id := l.nextID
	l.nextID++
	l.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.handlers, id)
			l.mu.Unlock()
		})
	}, nil
}

// Subscribers reports the number of registered handlers.
func (l *Local) Subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.handlers)
}

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.handlers = make(map[int]func(Change))
	return nil
}
