package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-skud/internal/attendance"
	"go-skud/internal/bootstrap"
	"go-skud/internal/config"
	"go-skud/internal/device"
	"go-skud/internal/employee"
	"go-skud/internal/event"
	"go-skud/internal/ingest"
	"go-skud/internal/isup"
	"go-skud/internal/notify"
	"go-skud/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ServiceName         = "go-skud"
	ListenerServiceName = "go-skud-listener"
	maxRetries          = 5
)

// Server is the default deployment: HTTP API, ISUP listener, ingest worker
// and notification dispatcher in one process.
type Server struct {
	cfg    config.Config
	logger *zap.Logger
	router *gin.Engine

	db          *gorm.DB
	rdb         *redis.Client
	kafkaWriter *kafkago.Writer

	dispatcher *notify.Dispatcher
	worker     *ingest.Worker
	listener   *isup.Listener
}

func BuildServer(cfg config.Config, logger *zap.Logger) (*Server, error) {
	processStart := time.Now()
	s := &Server{cfg: cfg, logger: logger.Named("app.server")}

	db, err := connection.ConnectGORMWithRetry(cfg.DB, maxRetries)
	if err != nil {
		return nil, err
	}
	s.db = db
	if err := attendance.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate attendance_logs: %w", err)
	}

	if cfg.RedisAddr != "" {
		if s.rdb, err = connection.ConnectRedisWithRetry(cfg.RedisAddr, maxRetries); err != nil {
			s.logger.Warn("redis unavailable, employee cache disabled", zap.Error(err))
			s.rdb = nil
		}
	}

	if cfg.KafkaBroker != "" {
		if s.kafkaWriter, err = connection.ConnectKafkaWithRetry(cfg.KafkaBroker, maxRetries); err != nil {
			s.logger.Warn("kafka unavailable, notifications will not be published", zap.Error(err))
			s.kafkaWriter = nil
		}
	}

	locator, err := device.NewLocatorFromConfig(cfg.DeviceTablePath)
	if err != nil {
		return nil, fmt.Errorf("device table: %w", err)
	}

	s.dispatcher = notify.NewDispatcher(notify.DispatcherConfig{
		QueueSize: cfg.NotificationQueueSize,
		Timeout:   cfg.NotificationTimeout,
	}, buildDestinations(cfg, s.kafkaWriter, logger), logger)

	directory := employee.NewDirectory(employee.NewRepository(db), s.rdb, cfg.EmployeeCacheTTL, logger)
	normalizer := event.NewNormalizer(locator, directory, processStart, cfg.Location)
	attendanceService := attendance.NewService(db, attendance.NewRepository(db), logger)
	ingestService := ingest.NewService(normalizer, attendanceService, s.dispatcher, logger)

	s.worker = ingest.NewWorker(ingestService, ingest.WorkerConfig{
		Workers:   cfg.IngestWorkers,
		QueueSize: cfg.IngestQueueSize,
	}, logger)

	s.listener = isup.NewListener(isup.ListenerConfig{
		Addr:        cfg.ISUPListenAddr,
		IdleTimeout: cfg.ISUPIdleTimeout,
	}, s.worker, logger)

	s.router = newRouter(cfg, logger)
	registerModules(s.router, modules{
		ingest:     ingest.NewHandler(ingestService),
		attendance: attendance.NewHandler(attendanceService, cfg.Location),
		cfg:        cfg,
	})

	return s, nil
}

// Run blocks until ctx is cancelled. Only a failure to bind the ISUP or
// HTTP port is returned as an error.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	if err := s.listener.Listen(); err != nil {
		return fmt.Errorf("isup listen %s: %w", s.cfg.ISUPListenAddr, err)
	}

	bg, stopBackground := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	runBackground(bg, &wg, s.dispatcher, s.worker)

	listenerCtx, stopListener := context.WithCancel(ctx)
	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		if err := s.listener.Serve(listenerCtx); err != nil {
			s.logger.Error("isup listener failed", zap.Error(err))
		}
	}()

	s.dispatcher.Notify(notify.StartupMessage(ServiceName, time.Now().In(s.cfg.Location)))
	s.logger.Info("server started",
		zap.String("http_port", s.cfg.HTTPPort),
		zap.String("isup_addr", s.cfg.ISUPListenAddr),
	)

	err := bootstrap.StartHTTPServer(ctx, s.router, bootstrap.ServerConfig{
		Port:         s.cfg.HTTPPort,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		AuditMeta:    listenerAuditMeta(s.listener),
	}, bootstrap.NewStdoutAuditLogger(ServiceName, s.logger))

	// Terminals first, then the queues they feed.
	stopListener()
	<-listenerDone
	stopBackground()
	wg.Wait()

	return err
}

func (s *Server) close() {
	var errs []error
	if s.kafkaWriter != nil {
		errs = append(errs, s.kafkaWriter.Close())
	}
	if s.rdb != nil {
		errs = append(errs, s.rdb.Close())
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("closing resources", zap.Error(err))
	}
}
