package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

//go:generate mockgen -source=notify_dispatcher.go -destination=mock/notify_dispatcher_mock.go -package=mock
type Notifier interface {
	// Notify queues msg for delivery and returns immediately.
	Notify(msg Message)
}

type DispatcherConfig struct {
	QueueSize int
	Timeout   time.Duration
}

// Dispatcher is the Notifier used in production: a bounded queue drained by
// Run, fanning each message out to every destination in parallel.
type Dispatcher struct {
	queue        chan Message
	destinations []Destination
	timeout      time.Duration
	logger       *zap.Logger
	metrics      *notifyMetrics
}

func NewDispatcher(cfg DispatcherConfig, destinations []Destination, logger ...*zap.Logger) *Dispatcher {
	l := zap.L().Named("notify.dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notify.dispatcher")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		queue:        make(chan Message, cfg.QueueSize),
		destinations: destinations,
		timeout:      cfg.Timeout,
		logger:       l,
		metrics:      globalNotifyMetrics(),
	}
}

func (d *Dispatcher) Notify(msg Message) {
	select {
	case d.queue <- msg:
		d.metrics.queued.Inc()
	default:
		d.metrics.dropped.Inc()
		d.logger.Warn("notification queue full, dropping message",
			zap.String("kind", string(msg.Kind)),
			zap.Int64("employee_id", msg.EmployeeID),
		)
	}
}

// Run dispatches queued messages until ctx is cancelled, then flushes what
// is still queued with a detached context.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("notification dispatcher started", zap.Int("destinations", len(d.destinations)))

	for {
		select {
		case <-ctx.Done():
			d.flush(context.WithoutCancel(ctx))
			d.logger.Info("notification dispatcher stopped")
			return
		case msg := <-d.queue:
			d.metrics.queued.Dec()
			d.dispatch(ctx, msg)
		}
	}
}

func (d *Dispatcher) flush(ctx context.Context) {
	for {
		select {
		case msg := <-d.queue:
			d.metrics.queued.Dec()
			d.dispatch(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) {
	var wg sync.WaitGroup
	for _, dest := range d.destinations {
		wg.Add(1)
		go func(dest Destination) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()

			err := d.send(sendCtx, dest, msg)
			d.metrics.recordDelivery(dest.Name(), err)
			if err != nil {
				d.logger.Error("notification delivery failed",
					zap.String("destination", dest.Name()),
					zap.String("kind", string(msg.Kind)),
					zap.Error(err),
				)
			}
		}(dest)
	}
	wg.Wait()
}

// send gives up on dest once ctx expires even if dest ignores ctx. The
// abandoned call finishes in the background and its result is discarded.
func (d *Dispatcher) send(ctx context.Context, dest Destination, msg Message) error {
	done := make(chan error, 1)
	go func() { done <- dest.Send(ctx, msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s did not answer in %s: %w", dest.Name(), d.timeout, ctx.Err())
	}
}
