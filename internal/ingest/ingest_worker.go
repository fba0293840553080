package ingest

import (
	"context"
	"sync"
	"sync/atomic"

	"go-skud/internal/event"
	ingesterrors "go-skud/internal/ingest/errors"

	"go.uber.org/zap"
)

type WorkerConfig struct {
	Workers   int
	QueueSize int
}

// Worker hands raw events from the ISUP listener to the pipeline off the
// connection goroutines.
type Worker struct {
	service Service
	queue   chan event.RawEvent
	workers int
	stopped atomic.Bool
	logger  *zap.Logger
	metrics *ingestMetrics
}

func NewWorker(service Service, cfg WorkerConfig, logger ...*zap.Logger) *Worker {
	l := zap.L().Named("ingest.worker")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ingest.worker")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	return &Worker{
		service: service,
		queue:   make(chan event.RawEvent, cfg.QueueSize),
		workers: cfg.Workers,
		logger:  l,
		metrics: globalIngestMetrics(),
	}
}

// Submit enqueues raw without waiting for a free slot.
func (w *Worker) Submit(ctx context.Context, raw event.RawEvent) error {
	if w.stopped.Load() {
		return ingesterrors.ErrWorkerStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case w.queue <- raw:
		w.metrics.queueDepth.Inc()
		return nil
	default:
		w.metrics.rejected.Inc()
		w.logger.Warn("ingest queue full, dropping event", zap.String("source_addr", raw.SourceAddr))
		return ingesterrors.ErrQueueFull
	}
}

// Run processes queued events until ctx is cancelled. Events still queued at
// that point are processed before Run returns.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("ingest worker started", zap.Int("workers", w.workers), zap.Int("queue_size", cap(w.queue)))

	processCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					w.drain(processCtx)
					return
				case raw := <-w.queue:
					w.metrics.queueDepth.Dec()
					w.service.Process(processCtx, raw)
				}
			}
		}()
	}

	<-ctx.Done()
	w.stopped.Store(true)
	wg.Wait()
	w.logger.Info("ingest worker stopped")
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case raw := <-w.queue:
			w.metrics.queueDepth.Dec()
			w.service.Process(ctx, raw)
		default:
			return
		}
	}
}
