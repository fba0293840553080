package isup

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go-skud/internal/device"
	"go-skud/internal/event"

	"go.uber.org/zap"
)

const (
	readBufferSize = 64 << 10
	writeTimeout   = 10 * time.Second
)

type State int

const (
	StateAwaitingRegistration State = iota
	StateActive
)

// session is the state of one terminal connection. Only the goroutine
// running serve touches it.
type session struct {
	conn        net.Conn
	remoteIP    string
	sessionID   []byte
	state       State
	sink        Sink
	idleTimeout time.Duration
	logger      *zap.Logger
	metrics     *listenerMetrics
}

func newSession(conn net.Conn, sink Sink, idleTimeout time.Duration, logger *zap.Logger, metrics *listenerMetrics) *session {
	remoteIP := device.NormalizeAddress(conn.RemoteAddr().String())
	return &session{
		conn:        conn,
		remoteIP:    remoteIP,
		state:       StateAwaitingRegistration,
		sink:        sink,
		idleTimeout: idleTimeout,
		logger:      logger.With(zap.String("remote_ip", remoteIP)),
		metrics:     metrics,
	}
}

// serve reads until the terminal hangs up, the idle timeout fires or ctx
// is cancelled by the listener closing the conn.
func (s *session) serve(ctx context.Context) {
	defer s.conn.Close()
	s.logger.Info("terminal connected")

	buf := make([]byte, readBufferSize)
	for {
		if s.idleTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			s.handleChunk(ctx, buf[:n])
		}
		if err != nil {
			s.logClose(err)
			return
		}
	}
}

func (s *session) logClose(err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		s.logger.Info("terminal disconnected")
	case errors.As(err, &netErr) && netErr.Timeout():
		s.logger.Info("terminal idle, closing", zap.Duration("idle_timeout", s.idleTimeout))
	default:
		s.logger.Warn("terminal connection error", zap.Error(err))
	}
}

func (s *session) handleChunk(ctx context.Context, chunk []byte) {
	f := DecodeFrame(chunk)
	s.metrics.frames.WithLabelValues(f.Kind.String()).Inc()

	switch f.Kind {
	case FrameRegistration:
		s.sessionID = f.SessionID
		s.state = StateActive
		s.logger.Info("terminal registered")
		s.reply(CommandRegisterAck)

	case FrameHeartbeat:
		s.logger.Debug("heartbeat", zap.Bool("registered", s.state == StateActive))
		s.reply(CommandHeartbeatAck)

	default:
		if f.Payload == "" {
			s.logger.Debug("unrecognized chunk dropped", zap.Int("bytes", len(chunk)), zap.Uint32("command", f.Command))
			return
		}
		s.forward(ctx, f.Payload)
	}
}

// reply acks with the negotiated session id; before registration the
// terminal gets a random one.
func (s *session) reply(command uint32) {
	ack, err := EncodeAck(command, s.sessionID)
	if err != nil {
		s.logger.Error("encode ack failed", zap.Uint32("command", command), zap.Error(err))
		return
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := s.conn.Write(ack); err != nil {
		s.logger.Warn("write ack failed", zap.Uint32("command", command), zap.Error(err))
	}
}

// forward hands the payload off with a context that outlives the socket,
// so a terminal hanging up never aborts reconciliation.
func (s *session) forward(ctx context.Context, payload string) {
	err := s.sink.Submit(context.WithoutCancel(ctx), event.RawEvent{
		SourceAddr: s.remoteIP,
		Body:       payload,
		ReceivedAt: time.Now(),
	})
	s.metrics.recordPayload(err)
	if err != nil {
		s.logger.Warn("event hand-off failed", zap.Error(err))
		return
	}
	s.logger.Debug("event handed off", zap.Int("bytes", len(payload)))
}
