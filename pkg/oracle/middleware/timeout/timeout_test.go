package timeout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediroute/pkg/oracle"
)

// slowClient blocks until its context is cancelled.
type slowClient struct{}

func (slowClient) Complete(ctx context.Context, _ oracle.Request) (oracle.Response, error) {
	<-ctx.Done()
	return oracle.Response{}, ctx.Err()
}

func (slowClient) Stream(ctx context.Context, _ oracle.Request) (<-chan oracle.StreamChunk, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowClient) ModelName() string { return "slow" }

func TestCompleteTimesOut(t *testing.T) {
	client := oracle.Chain(slowClient{}, Middleware(20*time.Millisecond))

	start := time.Now()
	_, err := client.Complete(context.Background(), oracle.NewRequest(nil))
	require.Error(t, err)
	assert.Equal(t, oracle.ErrorTypeTransient, oracle.TypeOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFastCompletePassesThrough(t *testing.T) {
	mock := oracle.NewMockClient([]oracle.Response{{Content: "ok"}}, nil)
	client := oracle.Chain(mock, Middleware(time.Second))

	resp, err := client.Complete(context.Background(), oracle.NewRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestStreamDrains(t *testing.T) {
	mock := oracle.NewMockClient([]oracle.Response{{Content: "chunked"}}, nil)
	client := oracle.Chain(mock, Middleware(time.Second))

	stream, err := client.Stream(context.Background(), oracle.NewRequest(nil))
	require.NoError(t, err)

	var got string
	for chunk := range stream {
		require.NoError(t, chunk.Error)
		got += chunk.Content
	}
	assert.Equal(t, "chunked", got)
}

// stuckProducer emits chunks until its context is cancelled, standing in for
// a backend mid-stream when the consumer walks away.
type stuckProducer struct{}

func (stuckProducer) Complete(_ context.Context, _ oracle.Request) (oracle.Response, error) {
	return oracle.Response{}, nil
}

func (stuckProducer) Stream(ctx context.Context, _ oracle.Request) (<-chan oracle.StreamChunk, error) {
	ch := make(chan oracle.StreamChunk)
	go func() {
		defer close(ch)
		for {
			select {
			case ch <- oracle.StreamChunk{Content: "x"}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (stuckProducer) ModelName() string { return "stuck" }

func TestStreamForwardingStopsWhenConsumerCancels(t *testing.T) {
	client := oracle.Chain(stuckProducer{}, Middleware(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := client.Stream(ctx, oracle.NewRequest(nil))
	require.NoError(t, err)

	<-stream
	cancel()

	// Nobody drains the stream after cancelling. The forwarding goroutine
	// must still observe the cancellation, abandon its pending send, and
	// close the channel instead of blocking forever.
	time.Sleep(50 * time.Millisecond)
	select {
	case _, open := <-stream:
		assert.False(t, open, "expected a closed stream, got a pending chunk")
	case <-time.After(2 * time.Second):
		t.Fatal("stream neither closed nor delivered after cancellation")
	}
}
