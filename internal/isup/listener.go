package isup

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

type ListenerConfig struct {
	Addr        string
	IdleTimeout time.Duration
}

// Listener accepts ISUP connections from terminals and runs one session
// per connection.
type Listener struct {
	cfg     ListenerConfig
	sink    Sink
	logger  *zap.Logger
	metrics *listenerMetrics

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewListener(cfg ListenerConfig, sink Sink, logger ...*zap.Logger) *Listener {
	l := zap.L().Named("isup.listener")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("isup.listener")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	return &Listener{
		cfg:     cfg,
		sink:    sink,
		logger:  l,
		metrics: globalListenerMetrics(),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the address. A bind failure is the caller's to treat as fatal.
func (l *Listener) Listen() error {
	ln, err := net.Listen("tcp", l.cfg.Addr)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()
	l.logger.Info("isup listener bound", zap.String("addr", ln.Addr().String()))
	return nil
}

func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Serve runs the accept loop until ctx is cancelled or Close is called,
// then waits for open sessions to finish.
func (l *Listener) Serve(ctx context.Context) error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()
	if ln == nil {
		return errors.New("isup: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				l.wg.Wait()
				l.logger.Info("isup listener stopped")
				return nil
			}
			l.logger.Warn("accept failed", zap.Error(err))
			time.Sleep(100 * time.Millisecond)
			continue
		}

		l.track(conn, true)
		l.metrics.accepted.Inc()
		l.metrics.active.Inc()

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer l.metrics.active.Dec()
			defer l.track(conn, false)
			newSession(conn, l.sink, l.cfg.IdleTimeout, l.logger, l.metrics).serve(ctx)
		}()
	}
}

// OpenSessions is the number of terminal connections currently served.
func (l *Listener) OpenSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Close stops accepting and drops every open connection.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	var err error
	if l.ln != nil {
		err = l.ln.Close()
	}
	for conn := range l.conns {
		_ = conn.Close()
	}
	return err
}

func (l *Listener) track(conn net.Conn, add bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if add {
		if l.closed {
			_ = conn.Close()
			return
		}
		l.conns[conn] = struct{}{}
	} else {
		delete(l.conns, conn)
	}
}
