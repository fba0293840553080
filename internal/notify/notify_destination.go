package notify

import (
	"context"

	"go.uber.org/zap"
)

//go:generate mockgen -source=notify_destination.go -destination=mock/notify_destination_mock.go -package=mock
type Destination interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// LogDestination writes every message to the log. It is always on, so a
// deployment without Telegram or Kafka still leaves a trace of alerts.
type LogDestination struct {
	logger *zap.Logger
}

func NewLogDestination(logger *zap.Logger) *LogDestination {
	if logger == nil {
		logger = zap.L()
	}
	return &LogDestination{logger: logger.Named("notify.log")}
}

func (d *LogDestination) Name() string { return "log" }

func (d *LogDestination) Send(_ context.Context, msg Message) error {
	d.logger.Info("notification",
		zap.String("kind", string(msg.Kind)),
		zap.String("audience", string(msg.Audience)),
		zap.Int64("employee_id", msg.EmployeeID),
		zap.String("source_addr", msg.SourceAddr),
		zap.Time("at", msg.At),
	)
	return nil
}
