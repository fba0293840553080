package isup

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"go-skud/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stalledSink holds every Submit until release is closed, like a server
// that stopped answering.
type stalledSink struct {
	memorySink
	release chan struct{}
}

func (s *stalledSink) Submit(ctx context.Context, raw event.RawEvent) error {
	<-s.release
	return s.memorySink.Submit(ctx, raw)
}

func TestForwardQueue_SlowSinkDoesNotDelayHeartbeatAck(t *testing.T) {
	sink := &stalledSink{release: make(chan struct{})}
	queue := NewForwardQueue(sink, ForwardQueueConfig{Workers: 1, QueueSize: 4}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	queueDone := make(chan struct{})
	go func() {
		queue.Run(ctx)
		close(queueDone)
	}()

	client, _ := startSession(t, context.Background(), queue)

	_, err := client.Write([]byte(`{"dateTime":"2024-03-01T08:00:00"}`))
	require.NoError(t, err)

	sent := time.Now()
	_, err = client.Write(terminalFrame(CommandHeartbeat, make([]byte, 16), ""))
	require.NoError(t, err)
	ack := readAck(t, client)

	assert.Equal(t, CommandHeartbeatAck, binary.LittleEndian.Uint32(ack[12:16]))
	assert.Less(t, time.Since(sent), 500*time.Millisecond)
	assert.Empty(t, sink.events(), "forward is still stalled")

	close(sink.release)
	assert.Eventually(t, func() bool { return len(sink.events()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-queueDone
}

func TestForwardQueue_FullQueueRejects(t *testing.T) {
	queue := NewForwardQueue(&memorySink{}, ForwardQueueConfig{Workers: 1, QueueSize: 1}, zap.NewNop())

	require.NoError(t, queue.Submit(context.Background(), event.RawEvent{Body: "one"}))
	assert.ErrorIs(t, queue.Submit(context.Background(), event.RawEvent{Body: "two"}), ErrForwardQueueFull)
}

func TestForwardQueue_RunDrainsOnShutdown(t *testing.T) {
	sink := &memorySink{}
	queue := NewForwardQueue(sink, ForwardQueueConfig{Workers: 2, QueueSize: 8}, zap.NewNop())

	for _, body := range []string{"a", "b", "c"} {
		require.NoError(t, queue.Submit(context.Background(), event.RawEvent{Body: body}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	queue.Run(ctx)

	assert.Len(t, sink.events(), 3)
	assert.ErrorIs(t, queue.Submit(context.Background(), event.RawEvent{Body: "late"}), ErrForwardQueueStopped)
}
