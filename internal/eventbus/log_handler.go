package eventbus

import (
	"context"
	"log/slog"
)

// LogHandler returns a handler that records every emission it receives. It never fails,
// so it is safe to subscribe next to handlers with side effects.
func LogHandler(logger *slog.Logger, eventType EventType, level slog.Level) Handler {
	msg := "event::" + eventType
	return func(ctx context.Context, payload Payload) error {
		logger.Log(ctx, level, msg, "payload", payload, "depth", Depth(ctx))
		return nil
	}
}
