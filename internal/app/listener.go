package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-skud/internal/bootstrap"
	"go-skud/internal/config"
	"go-skud/internal/isup"

	"go.uber.org/zap"
)

// RunListener runs a standalone ISUP listener that forwards every event
// document to ISUP_FORWARD_URL. HTTP_PORT serves health and metrics.
func RunListener(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	log := logger.Named("app.listener")
	if cfg.ISUPForwardURL == "" {
		return errors.New("ISUP_FORWARD_URL is required")
	}

	forwarder := isup.NewHTTPForwarder(cfg.ISUPForwardURL, 10*time.Second, logger)
	queue := isup.NewForwardQueue(forwarder, isup.ForwardQueueConfig{
		Workers:   cfg.IngestWorkers,
		QueueSize: cfg.IngestQueueSize,
	}, logger)
	listener := isup.NewListener(isup.ListenerConfig{
		Addr:        cfg.ISUPListenAddr,
		IdleTimeout: cfg.ISUPIdleTimeout,
	}, queue, logger)

	if err := listener.Listen(); err != nil {
		return fmt.Errorf("isup listen %s: %w", cfg.ISUPListenAddr, err)
	}

	// The queue outlives the listener so events read before shutdown are
	// still forwarded.
	queueCtx, stopQueue := context.WithCancel(context.WithoutCancel(ctx))
	queueDone := make(chan struct{})
	go func() {
		defer close(queueDone)
		queue.Run(queueCtx)
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- listener.Serve(ctx) }()

	log.Info("forwarding terminal events", zap.String("url", cfg.ISUPForwardURL))

	err := bootstrap.StartHTTPServer(ctx, newRouter(cfg, logger), bootstrap.ServerConfig{
		Port:         cfg.HTTPPort,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		AuditMeta:    listenerAuditMeta(listener),
	}, bootstrap.NewStdoutAuditLogger(ListenerServiceName, logger))
	if err != nil {
		_ = listener.Close()
	}

	err = errors.Join(err, <-serveErr)
	stopQueue()
	<-queueDone
	return err
}

func listenerAuditMeta(l *isup.Listener) func() map[string]any {
	return func() map[string]any {
		meta := map[string]any{"open_sessions": l.OpenSessions()}
		if addr := l.Addr(); addr != nil {
			meta["isup_addr"] = addr.String()
		}
		return meta
	}
}
