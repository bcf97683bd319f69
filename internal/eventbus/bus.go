// Package eventbus provides an in-process, synchronous publish/subscribe bus.
//
// Handlers are registered per event type and invoked in subscription order on the
// goroutine that calls Emit. A handler may emit further events; nested emissions run
// to completion before the outer emission continues (depth-first dispatch). The first
// handler that returns an error aborts the rest of its emission and the error is
// returned to the caller of Emit.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventType names a category of occurrence. Any string is valid.
type EventType = string

// Payload is the data handed to every handler of one emission. It is shared by
// reference and never copied by the bus.
type Payload = map[string]any

// Handler reacts to an emitted event. A non-nil error aborts the current emission.
type Handler func(ctx context.Context, payload Payload) error

// ErrMaxDepthExceeded is returned when nested emissions exceed the configured depth.
var ErrMaxDepthExceeded = errors.New("maximum emission depth exceeded")

// HandlerError reports the handler that aborted an emission.
type HandlerError struct {
	EventType EventType
	Index     int
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handle %s event (handler %d): %v", e.EventType, e.Index, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Bus is the default in-memory event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	maxDepth int
}

type Option func(*Bus)

// WithMaxDepth bounds how deeply emissions may nest. Zero disables the limit.
//
// Depth travels in the context handed to each handler, so a nested Emit only counts
// toward the limit when it is passed that ctx. A handler that emits with a fresh
// context such as context.Background() starts again at depth one.
func WithMaxDepth(depth int) Option {
	return func(b *Bus) {
		if depth > 0 {
			b.maxDepth = depth
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{handlers: make(map[EventType][]Handler)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe appends handler to the list for eventType. The same handler may be
// subscribed more than once and is then invoked once per subscription.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	if handler == nil {
		panic("eventbus: nil handler")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit invokes every handler registered for eventType with payload, in
// subscription order. Emitting a type nobody subscribed to is a no-op, at any depth.
func (b *Bus) Emit(ctx context.Context, eventType EventType, payload Payload) error {
	if _, ok := b.handlerAt(eventType, 0); !ok {
		return nil
	}

	depth := depthFromContext(ctx) + 1
	if b.maxDepth > 0 && depth > b.maxDepth {
		return fmt.Errorf("emit %s at depth %d: %w", eventType, depth, ErrMaxDepthExceeded)
	}
	ctx = withDepth(ctx, depth)

	// The registry only grows, so walking by index against the live list stays valid
	// and picks up handlers subscribed to this type while it is being emitted.
	for i := 0; ; i++ {
		handler, ok := b.handlerAt(eventType, i)
		if !ok {
			return nil
		}
		if err := handler(ctx, payload); err != nil {
			return &HandlerError{EventType: eventType, Index: i, Err: err}
		}
	}
}

// HandlerCount returns the number of handlers registered for eventType.
func (b *Bus) HandlerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

func (b *Bus) handlerAt(eventType EventType, i int) (Handler, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := b.handlers[eventType]
	if i >= len(handlers) {
		return nil, false
	}
	return handlers[i], true
}

type depthKey struct{}

func depthFromContext(ctx context.Context) int {
	depth, _ := ctx.Value(depthKey{}).(int)
	return depth
}

func withDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}

// Depth reports how many emissions enclose the current handler call. It is zero
// outside of any emission.
func Depth(ctx context.Context) int {
	return depthFromContext(ctx)
}
