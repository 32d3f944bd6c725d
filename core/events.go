package core

import (
	"fmt"
	"sort"
	"sync"
)

// Emitter is a typed, synchronous event emitter.
// Listeners run in subscription order; a panicking listener is logged and does not stop the others.
type Emitter[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(T)
	logger    Logger
	name      string
}

func NewEmitter[T any](name string, logger Logger) *Emitter[T] {
	return &Emitter[T]{
		listeners: make(map[int]func(T)),
		logger:    logger,
		name:      name,
	}
}

// Subscribe registers fn and returns its unsubscribe handle. Calling the handle twice is a no-op.
func (e *Emitter[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.listeners, id)
			e.mu.Unlock()
		})
	}
}

// Emit calls every listener with v. Listeners may (un)subscribe while being called.
func (e *Emitter[T]) Emit(v T) {
	for _, fn := range e.snapshot() {
		e.call(fn, v)
	}
}

func (e *Emitter[T]) Clear() {
	e.mu.Lock()
	e.listeners = make(map[int]func(T))
	e.mu.Unlock()
}

func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

func (e *Emitter[T]) snapshot() []func(T) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]int, 0, len(e.listeners))
	for id := range e.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.listeners[id])
	}
	return fns
}

func (e *Emitter[T]) call(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil && e.logger != nil {
			e.logger.Error(fmt.Sprintf("%s listener failed", e.name), fmt.Errorf("%v", r))
		}
	}()
	fn(v)
}
