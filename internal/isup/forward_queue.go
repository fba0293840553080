package isup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go-skud/internal/event"

	"go.uber.org/zap"
)

var (
	ErrForwardQueueFull    = errors.New("isup: forward queue is full")
	ErrForwardQueueStopped = errors.New("isup: forward queue is stopped")
)

type ForwardQueueConfig struct {
	Workers   int
	QueueSize int
}

// ForwardQueue puts a slow Sink behind a bounded queue so sessions never
// wait on it. Run delivers queued events with its own goroutines.
type ForwardQueue struct {
	sink    Sink
	queue   chan event.RawEvent
	workers int
	stopped atomic.Bool
	logger  *zap.Logger
	metrics *listenerMetrics
}

func NewForwardQueue(sink Sink, cfg ForwardQueueConfig, logger ...*zap.Logger) *ForwardQueue {
	l := zap.L().Named("isup.forward_queue")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("isup.forward_queue")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &ForwardQueue{
		sink:    sink,
		queue:   make(chan event.RawEvent, cfg.QueueSize),
		workers: cfg.Workers,
		logger:  l,
		metrics: globalListenerMetrics(),
	}
}

// Submit enqueues raw and returns without waiting for the sink.
func (q *ForwardQueue) Submit(ctx context.Context, raw event.RawEvent) error {
	if q.stopped.Load() {
		return ErrForwardQueueStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.queue <- raw:
		q.metrics.forwardQueued.Inc()
		return nil
	default:
		q.logger.Warn("forward queue full, dropping event", zap.String("source_addr", raw.SourceAddr))
		q.metrics.recordForward(ErrForwardQueueFull)
		return ErrForwardQueueFull
	}
}

// Run forwards queued events until ctx is cancelled, then forwards what is
// still queued before returning.
func (q *ForwardQueue) Run(ctx context.Context) {
	forwardCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					q.drain(forwardCtx)
					return
				case raw := <-q.queue:
					q.forward(forwardCtx, raw)
				}
			}
		}()
	}

	<-ctx.Done()
	q.stopped.Store(true)
	wg.Wait()
	q.logger.Info("forward queue stopped")
}

func (q *ForwardQueue) drain(ctx context.Context) {
	for {
		select {
		case raw := <-q.queue:
			q.forward(ctx, raw)
		default:
			return
		}
	}
}

func (q *ForwardQueue) forward(ctx context.Context, raw event.RawEvent) {
	q.metrics.forwardQueued.Dec()
	err := q.sink.Submit(ctx, raw)
	q.metrics.recordForward(err)
	if err != nil {
		q.logger.Warn("forward failed", zap.String("source_addr", raw.SourceAddr), zap.Error(err))
	}
}
