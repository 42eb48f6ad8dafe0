// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), TopicCompletion)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	require.NoError(t, b.Publish(context.Background(), TopicCompletion, "hello"))

	select {
	case msg := <-sub.C():
		require.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestMemoryBusDropsOnFullSubscriber(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	// Fill the subscriber's buffer without draining it; Publish must not
	// block the caller once the channel is full.
	for i := 0; i < 200; i++ {
		require.NoError(t, b.Publish(context.Background(), "topic", i))
	}

	require.LessOrEqual(t, len(sub.C()), 64)
}

func TestMemoryBusCloseRemovesSubscriber(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)

	require.NoError(t, sub.Close())

	_, ok := <-sub.C()
	require.False(t, ok, "channel should be closed after unsubscribe")
}
