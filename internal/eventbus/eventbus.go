// Package eventbus is a small typed publish/subscribe dispatcher. A Bus is an
// ordinary value passed to the components that publish on it; there is no
// process-wide instance.
package eventbus

import (
	"context"
	"reflect"
	"sync"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type entry struct {
	id uint64
	fn func(context.Context, any)
}

// Bus is a simple in-process event dispatcher. Handlers run synchronously on
// the publishing goroutine and must be safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[reflect.Type][]entry
}

// New creates a new Bus.
func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]entry)} }

func (b *Bus) subscribe(t reflect.Type, fn func(context.Context, any)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], entry{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			hs := b.handlers[t]
			for i, e := range hs {
				if e.id == id {
					hs = append(hs[:i:i], hs[i+1:]...)
					break
				}
			}
			if len(hs) == 0 {
				delete(b.handlers, t)
			} else {
				b.handlers[t] = hs
			}
		})
	}
}

// emit dispatches e to all handlers of its dynamic type.
func (b *Bus) emit(ctx context.Context, t reflect.Type, e any) {
	b.mu.RLock()
	hs := b.handlers[t]
	b.mu.RUnlock()
	for _, h := range hs {
		h.fn(ctx, e)
	}
}

// Subscribe registers h for events of type T on b. A nil Bus accepts the
// subscription and never delivers.
func Subscribe[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.subscribe(t, func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Publish sends e to every handler subscribed to T on b. Publishing on a nil
// Bus does nothing.
func Publish[T any](ctx context.Context, b *Bus, e T) {
	if b == nil {
		return
	}
	b.emit(ctx, reflect.TypeOf((*T)(nil)).Elem(), e)
}
