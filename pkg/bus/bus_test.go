package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startBus(t *testing.T, opts ...Option) (*Bus[string, int], context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	b := NewBus[string, int](zap.NewNop(), opts...)
	require.NoError(t, b.Start(ctx))
	<-b.Ready()
	return b, ctx
}

func receive(t *testing.T, ch <-chan Message[string, int]) Message[string, int] {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message[string, int]{}
}

func TestBusOrdering(t *testing.T) {
	b, ctx := startBus(t, WithQueueSize(4))
	ch := b.Subscribe(ctx, "frames")
	publish := b.CreatePublisher("frames")
	go func() {
		for i := 0; i < 100; i++ {
			publish(ctx, i)
		}
	}()
	for i := 0; i < 100; i++ {
		msg := receive(t, ch)
		require.Equal(t, "frames", msg.Key)
		require.Equal(t, i, msg.Message)
	}
}

func TestBusKeyFiltering(t *testing.T) {
	b, ctx := startBus(t)
	keyed := b.Subscribe(ctx, "a")
	global := b.CreateSubscriber()(ctx)

	b.Publish(ctx, "b", 1)
	b.Publish(ctx, "a", 2)

	assert.Equal(t, 1, receive(t, global).Message)
	assert.Equal(t, 2, receive(t, global).Message)
	assert.Equal(t, 2, receive(t, keyed).Message)
}

func TestBusUnsubscribe(t *testing.T) {
	b, ctx := startBus(t)
	subCtx, cancel := context.WithCancel(ctx)
	_ = b.Subscribe(subCtx, "a")
	live := b.Subscribe(ctx, "a")
	cancel()

	// the cancelled subscriber never reads, delivery must not stall on it
	b.Publish(ctx, "a", 1)
	assert.Equal(t, 1, receive(t, live).Message)
}

func TestBusStartTwice(t *testing.T) {
	b, ctx := startBus(t)
	assert.Error(t, b.Start(ctx))
}
