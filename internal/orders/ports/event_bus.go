package ports

import (
	"context"

	"github.com/dejobratic/orderflow/internal/eventbus"
)

// EventPublisher is what agents need: emit a result event and learn whether every
// handler accepted it.
type EventPublisher interface {
	Emit(ctx context.Context, eventType eventbus.EventType, payload eventbus.Payload) error
}

// EventBus adds subscription for the presentation layer and other consumers.
type EventBus interface {
	EventPublisher
	Subscribe(eventType eventbus.EventType, handler eventbus.Handler)
}
