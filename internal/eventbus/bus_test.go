package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/orderflow/internal/eventbus"
)

func TestEmitWithoutSubscribers(t *testing.T) {
	bus := eventbus.New()

	err := bus.Emit(context.Background(), "never_subscribed", eventbus.Payload{"k": "v"})

	require.NoError(t, err)
	assert.Zero(t, bus.HandlerCount("never_subscribed"))
}

func TestEmitInvokesHandlersInSubscriptionOrder(t *testing.T) {
	bus := eventbus.New()
	payload := eventbus.Payload{"order_id": 1}

	var calls []string
	var received []eventbus.Payload
	bus.Subscribe("a", func(_ context.Context, p eventbus.Payload) error {
		calls = append(calls, "h1")
		received = append(received, p)
		return nil
	})
	bus.Subscribe("a", func(_ context.Context, p eventbus.Payload) error {
		calls = append(calls, "h2")
		received = append(received, p)
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), "a", payload))

	assert.Equal(t, []string{"h1", "h2"}, calls)
	require.Len(t, received, 2)
	for _, p := range received {
		p["seen"] = true
	}
	assert.Equal(t, true, payload["seen"], "handlers must receive the emitted map itself")
}

func TestDuplicateSubscriptionInvokedTwice(t *testing.T) {
	bus := eventbus.New()

	count := 0
	handler := func(context.Context, eventbus.Payload) error {
		count++
		return nil
	}
	bus.Subscribe("a", handler)
	bus.Subscribe("a", handler)

	require.NoError(t, bus.Emit(context.Background(), "a", nil))
	require.NoError(t, bus.Emit(context.Background(), "a", nil))

	assert.Equal(t, 4, count)
	assert.Equal(t, 2, bus.HandlerCount("a"))
}

func TestSubscriptionsAreScopedToEventType(t *testing.T) {
	bus := eventbus.New()

	var aCalls, bCalls int
	bus.Subscribe("a", func(context.Context, eventbus.Payload) error { aCalls++; return nil })
	bus.Subscribe("b", func(context.Context, eventbus.Payload) error { bCalls++; return nil })

	require.NoError(t, bus.Emit(context.Background(), "b", nil))

	assert.Zero(t, aCalls)
	assert.Equal(t, 1, bCalls)
	assert.Equal(t, 1, bus.HandlerCount("a"))
}

func TestNestedEmissionIsDepthFirst(t *testing.T) {
	bus := eventbus.New()
	x := eventbus.Payload{"name": "x"}
	y := eventbus.Payload{"name": "y"}

	var trace []string
	record := func(label string) eventbus.Handler {
		return func(_ context.Context, p eventbus.Payload) error {
			trace = append(trace, label+"("+p["name"].(string)+")")
			return nil
		}
	}

	bus.Subscribe("A", func(ctx context.Context, p eventbus.Payload) error {
		trace = append(trace, "H1("+p["name"].(string)+")")
		return bus.Emit(ctx, "B", x)
	})
	bus.Subscribe("A", record("H2"))
	bus.Subscribe("B", record("B1"))
	bus.Subscribe("B", record("B2"))

	require.NoError(t, bus.Emit(context.Background(), "A", y))

	assert.Equal(t, []string{"H1(y)", "B1(x)", "B2(x)", "H2(y)"}, trace)
}

func TestHandlerFailureAbortsEmission(t *testing.T) {
	bus := eventbus.New()
	boom := errors.New("boom")

	var calls []string
	bus.Subscribe("a", func(context.Context, eventbus.Payload) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe("a", func(context.Context, eventbus.Payload) error {
		calls = append(calls, "failing")
		return boom
	})
	bus.Subscribe("a", func(context.Context, eventbus.Payload) error {
		calls = append(calls, "skipped")
		return nil
	})

	err := bus.Emit(context.Background(), "a", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var handlerErr *eventbus.HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, "a", handlerErr.EventType)
	assert.Equal(t, 1, handlerErr.Index)
	assert.Equal(t, []string{"first", "failing"}, calls)
}

func TestNestedFailurePropagatesToOuterEmission(t *testing.T) {
	bus := eventbus.New()
	boom := errors.New("inner failed")

	outerContinued := false
	bus.Subscribe("outer", func(ctx context.Context, _ eventbus.Payload) error {
		return bus.Emit(ctx, "inner", nil)
	})
	bus.Subscribe("outer", func(context.Context, eventbus.Payload) error {
		outerContinued = true
		return nil
	})
	bus.Subscribe("inner", func(context.Context, eventbus.Payload) error {
		return boom
	})

	err := bus.Emit(context.Background(), "outer", nil)

	require.ErrorIs(t, err, boom)
	assert.False(t, outerContinued)

	var outer *eventbus.HandlerError
	require.ErrorAs(t, err, &outer)
	assert.Equal(t, "outer", outer.EventType)
	var inner *eventbus.HandlerError
	require.ErrorAs(t, outer.Err, &inner)
	assert.Equal(t, "inner", inner.EventType)
}

func TestHandlerPanicIsNotRecovered(t *testing.T) {
	bus := eventbus.New()
	bus.Subscribe("a", func(context.Context, eventbus.Payload) error {
		panic("handler exploded")
	})

	assert.PanicsWithValue(t, "handler exploded", func() {
		_ = bus.Emit(context.Background(), "a", nil)
	})
}

func TestPayloadMutationVisibleToLaterHandlers(t *testing.T) {
	bus := eventbus.New()

	var seen any
	bus.Subscribe("a", func(_ context.Context, p eventbus.Payload) error {
		p["stamp"] = "first"
		return nil
	})
	bus.Subscribe("a", func(_ context.Context, p eventbus.Payload) error {
		seen = p["stamp"]
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), "a", eventbus.Payload{}))

	assert.Equal(t, "first", seen)
}

func TestHandlerSubscribedDuringEmissionRuns(t *testing.T) {
	bus := eventbus.New()

	lateCalls := 0
	bus.Subscribe("a", func(context.Context, eventbus.Payload) error {
		if bus.HandlerCount("a") == 1 {
			bus.Subscribe("a", func(context.Context, eventbus.Payload) error {
				lateCalls++
				return nil
			})
		}
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), "a", nil))

	assert.Equal(t, 1, lateCalls)
}

func TestSubscribeNilHandlerPanics(t *testing.T) {
	bus := eventbus.New()

	assert.PanicsWithValue(t, "eventbus: nil handler", func() {
		bus.Subscribe("a", nil)
	})
}

func TestEmptyPayloadIsAccepted(t *testing.T) {
	bus := eventbus.New()

	var got eventbus.Payload
	called := false
	bus.Subscribe("a", func(_ context.Context, p eventbus.Payload) error {
		called = true
		got = p
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), "a", nil))

	assert.True(t, called)
	assert.Nil(t, got)
}

func TestMaxDepth(t *testing.T) {
	t.Run("stops runaway recursion", func(t *testing.T) {
		bus := eventbus.New(eventbus.WithMaxDepth(3))

		calls := 0
		bus.Subscribe("loop", func(ctx context.Context, p eventbus.Payload) error {
			calls++
			return bus.Emit(ctx, "loop", p)
		})

		err := bus.Emit(context.Background(), "loop", nil)

		require.ErrorIs(t, err, eventbus.ErrMaxDepthExceeded)
		assert.Equal(t, 3, calls)
	})

	t.Run("unsubscribed type at the limit is a no-op", func(t *testing.T) {
		bus := eventbus.New(eventbus.WithMaxDepth(1))

		called := false
		bus.Subscribe("A", func(ctx context.Context, p eventbus.Payload) error {
			called = true
			return bus.Emit(ctx, "nobody_listens", p)
		})

		require.NoError(t, bus.Emit(context.Background(), "A", nil))
		assert.True(t, called)
	})

	t.Run("fresh context restarts the count", func(t *testing.T) {
		bus := eventbus.New(eventbus.WithMaxDepth(1))

		var innerDepth int
		bus.Subscribe("outer", func(_ context.Context, p eventbus.Payload) error {
			return bus.Emit(context.Background(), "inner", p)
		})
		bus.Subscribe("inner", func(ctx context.Context, _ eventbus.Payload) error {
			innerDepth = eventbus.Depth(ctx)
			return nil
		})

		require.NoError(t, bus.Emit(context.Background(), "outer", nil))
		assert.Equal(t, 1, innerDepth)
	})

	t.Run("reports depth to handlers", func(t *testing.T) {
		bus := eventbus.New()

		var depths []int
		bus.Subscribe("outer", func(ctx context.Context, _ eventbus.Payload) error {
			depths = append(depths, eventbus.Depth(ctx))
			return bus.Emit(ctx, "inner", nil)
		})
		bus.Subscribe("inner", func(ctx context.Context, _ eventbus.Payload) error {
			depths = append(depths, eventbus.Depth(ctx))
			return nil
		})

		require.NoError(t, bus.Emit(context.Background(), "outer", nil))

		assert.Equal(t, []int{1, 2}, depths)
		assert.Zero(t, eventbus.Depth(context.Background()))
	})

	t.Run("non-positive depth means unlimited", func(t *testing.T) {
		bus := eventbus.New(eventbus.WithMaxDepth(0))

		calls := 0
		bus.Subscribe("loop", func(ctx context.Context, p eventbus.Payload) error {
			calls++
			if calls == 100 {
				return nil
			}
			return bus.Emit(ctx, "loop", p)
		})

		require.NoError(t, bus.Emit(context.Background(), "loop", nil))
		assert.Equal(t, 100, calls)
	})
}
