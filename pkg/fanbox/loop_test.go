package fanbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/fancourier/pkg/fanbox"
)

func TestEventLoop_RunsInOrder(t *testing.T) {
	loop := fanbox.NewEventLoop(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		loop.Post(func() { got = append(got, i) })
	}
	require.NoError(t, loop.Do(ctx, func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestEventLoop_After(t *testing.T) {
	loop := fanbox.NewEventLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	fired := make(chan struct{})
	loop.After(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestEventLoop_RunStopsOnCancel(t *testing.T) {
	loop := fanbox.NewEventLoop(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	loop.After(time.Hour, func() {})
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
