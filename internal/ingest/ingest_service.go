package ingest

import (
	"context"
	"errors"
	"time"

	"go-skud/internal/attendance"
	"go-skud/internal/device"
	"go-skud/internal/event"
	eventerrors "go-skud/internal/event/errors"
	"go-skud/internal/notify"
	"go-skud/internal/shared/contextutil"

	"go.uber.org/zap"
)

//go:generate mockgen -source=ingest_service.go -destination=mock/ingest_service_mock.go -package=mock
type Service interface {
	// Process runs one raw event through the pipeline. It never fails:
	// every problem is folded into the Result.
	Process(ctx context.Context, raw event.RawEvent) Result
}

type service struct {
	normalizer event.Normalizer
	attendance attendance.Service
	notifier   notify.Notifier
	logger     *zap.Logger
	metrics    *ingestMetrics
}

func NewService(normalizer event.Normalizer, attendanceService attendance.Service, notifier notify.Notifier, logger ...*zap.Logger) Service {
	l := zap.L().Named("ingest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ingest.service")
	}
	return &service{
		normalizer: normalizer,
		attendance: attendanceService,
		notifier:   notifier,
		logger:     l,
		metrics:    globalIngestMetrics(),
	}
}

func (s *service) Process(ctx context.Context, raw event.RawEvent) Result {
	start := time.Now()
	log := contextutil.GetLogger(ctx, s.logger)

	res, effects := s.handle(ctx, raw, log)
	for _, msg := range effects {
		s.notifier.Notify(msg)
	}

	s.metrics.record(res, time.Since(start))
	log.Info("event processed",
		zap.String("source_addr", raw.SourceAddr),
		zap.String("status", res.Status),
		zap.String("outcome", string(res.Outcome)),
		zap.String("reason", res.Reason),
		zap.Int("notifications", len(effects)),
	)
	return res
}

// handle decides the result and the notifications to send. Nothing here
// talks to a notification destination.
func (s *service) handle(ctx context.Context, raw event.RawEvent, log *zap.Logger) (Result, []notify.Message) {
	ev, err := s.normalizer.Normalize(ctx, raw)
	if err != nil {
		return rejected(ev, err, log)
	}

	if ev.Kind == event.KindRemoteUnlock {
		return Result{Status: StatusRemoteUnlock, Kind: ev.Kind}, []notify.Message{notify.RemoteUnlockMessage(ev)}
	}

	outcome, err := s.attendance.Reconcile(ctx, ev)
	if err != nil {
		log.Error("attendance reconcile failed",
			zap.Int64("employee_id", ev.EmployeeID),
			zap.String("direction", string(ev.Direction)),
			zap.Time("at", ev.Timestamp),
			zap.Error(err),
		)
		return Result{Status: StatusError, Kind: ev.Kind}, nil
	}

	return Result{Status: statusFor(ev, outcome), Kind: ev.Kind, Outcome: outcome}, effectsFor(ev, outcome)
}

func rejected(ev event.NormalizedEvent, err error, log *zap.Logger) (Result, []notify.Message) {
	reason := eventerrors.Reason(err)
	if reason == "" {
		log.Error("event normalization failed", zap.String("source_addr", ev.SourceAddr), zap.Error(err))
		return Result{Status: StatusError}, nil
	}

	log.Debug("event rejected", zap.String("reason", reason), zap.Error(err))
	res := Result{Status: rejectionStatus[reason], Kind: ev.Kind, Reason: reason}

	switch {
	case errors.Is(err, eventerrors.ErrUnknownEmployee):
		return res, []notify.Message{notify.UnknownEmployeeMessage(ev)}
	case errors.Is(err, eventerrors.ErrUnknownTerminal):
		return res, []notify.Message{notify.UnknownTerminalMessage(ev)}
	default:
		return res, nil
	}
}

func statusFor(ev event.NormalizedEvent, outcome attendance.Outcome) string {
	if ev.Direction == device.DirectionEntry && outcome == attendance.OutcomeIgnored {
		return StatusDuplicateEntry
	}
	return StatusHandled
}

// effectsFor: an ignored duplicate entry stays silent, every stored entry
// and every exit is announced.
func effectsFor(ev event.NormalizedEvent, outcome attendance.Outcome) []notify.Message {
	if outcome == attendance.OutcomeIgnored {
		return nil
	}
	if ev.Direction == device.DirectionEntry {
		return []notify.Message{notify.EntryMessage(ev)}
	}
	return []notify.Message{notify.ExitMessage(ev)}
}
