package notify_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-skud/internal/notify"
	notifyMock "go-skud/internal/notify/mock"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// recordingDestination collects what it was sent.
type recordingDestination struct {
	mu   sync.Mutex
	name string
	got  []notify.Message
	err  error
}

func (d *recordingDestination) Name() string { return d.name }

func (d *recordingDestination) Send(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, msg)
	return d.err
}

func (d *recordingDestination) messages() []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Message(nil), d.got...)
}

func TestDispatcher_FansOutDespiteFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := notifyMock.NewMockDestination(ctrl)
	failing.EXPECT().Name().Return("telegram").AnyTimes()
	failing.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("bot blocked")).Times(2)

	healthy := &recordingDestination{name: "log"}

	d := notify.NewDispatcher(notify.DispatcherConfig{QueueSize: 8, Timeout: time.Second},
		[]notify.Destination{failing, healthy}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Notify(notify.Message{Kind: notify.KindEntry, Text: "one"})
	d.Notify(notify.Message{Kind: notify.KindExit, Text: "two"})

	assert.Eventually(t, func() bool { return len(healthy.messages()) == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	got := healthy.messages()
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "two", got[1].Text)
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	healthy := &recordingDestination{name: "log"}
	d := notify.NewDispatcher(notify.DispatcherConfig{QueueSize: 1, Timeout: time.Second},
		[]notify.Destination{healthy}, zap.NewNop())

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			d.Notify(notify.Message{Kind: notify.KindEntry})
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	// Only the queued message survives; Run flushes it on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)
	assert.Len(t, healthy.messages(), 1)
}

func TestDispatcher_SlowDestinationTimesOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	slow := notifyMock.NewMockDestination(ctrl)
	slow.EXPECT().Name().Return("kafka").AnyTimes()
	slow.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ notify.Message) error {
			<-ctx.Done()
			return ctx.Err()
		})

	fast := &recordingDestination{name: "log"}
	d := notify.NewDispatcher(notify.DispatcherConfig{QueueSize: 1, Timeout: 50 * time.Millisecond},
		[]notify.Destination{slow, fast}, zap.NewNop())

	d.Notify(notify.Message{Kind: notify.KindStartup})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	d.Run(ctx)
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, fast.messages(), 1)
}

// hungBot never answers until released, like a Telegram call stuck on a dead
// connection. It ignores any context.
type hungBot struct {
	release chan struct{}
}

func (b *hungBot) Send(tgbotapi.Chattable) (tgbotapi.Message, error) {
	<-b.release
	return tgbotapi.Message{}, nil
}

func TestDispatcher_HungDestinationDoesNotStallOthers(t *testing.T) {
	bot := &hungBot{release: make(chan struct{})}
	defer close(bot.release)

	telegram := notify.NewTelegramDestination(bot, map[notify.Audience][]int64{
		notify.AudienceAttendance: {-100},
	})
	log := &recordingDestination{name: "log"}

	d := notify.NewDispatcher(notify.DispatcherConfig{QueueSize: 8, Timeout: 100 * time.Millisecond},
		[]notify.Destination{telegram, log}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Notify(notify.Message{Kind: notify.KindEntry, Audience: notify.AudienceAttendance, Text: "one"})
	d.Notify(notify.Message{Kind: notify.KindExit, Audience: notify.AudienceAttendance, Text: "two"})

	assert.Eventually(t, func() bool { return len(log.messages()) == 2 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
