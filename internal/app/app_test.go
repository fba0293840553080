package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go-skud/internal/attendance"
	attendanceMock "go-skud/internal/attendance/mock"
	"go-skud/internal/config"
	"go-skud/internal/event"
	"go-skud/internal/ingest"
	ingestMock "go-skud/internal/ingest/mock"
	"go-skud/internal/isup"
	"go-skud/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func testRouter(t *testing.T) (*gin.Engine, *ingestMock.MockService, *attendanceMock.MockService) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	ingestSvc := ingestMock.NewMockService(ctrl)
	attendanceSvc := attendanceMock.NewMockService(ctrl)

	cfg := config.Config{Env: "test", Location: time.UTC, IngestRatePerSecond: 100, IngestRateBurst: 100}
	r := newRouter(cfg, zap.NewNop())
	registerModules(r, modules{
		ingest:     ingest.NewHandler(ingestSvc),
		attendance: attendance.NewHandler(attendanceSvc, time.UTC),
		cfg:        cfg,
	})
	return r, ingestSvc, attendanceSvc
}

func TestRouter_Routes(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		r, _, _ := testRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		r, _, _ := testRouter(t)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("terminal push path", func(t *testing.T) {
		r, ingestSvc, _ := testRouter(t)
		ingestSvc.EXPECT().Process(gomock.Any(), gomock.Any()).Return(ingest.Result{Status: ingest.StatusNoPayload})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/hikvision/event", strings.NewReader("heartbeat")))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, ingest.StatusNoPayload, w.Body.String())
	})

	t.Run("report path", func(t *testing.T) {
		r, _, attendanceSvc := testRouter(t)
		attendanceSvc.EXPECT().GetReport(gomock.Any(), gomock.Any()).Return([]attendance.ReportRow{}, int64(0), nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/attendances/report?start_date=2024-03-01&end_date=2024-03-31", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestBuildDestinations_LogOnlyWhenUnconfigured(t *testing.T) {
	dests := buildDestinations(config.Config{}, nil, zap.NewNop())
	require.Len(t, dests, 1)
	assert.Equal(t, "log", dests[0].Name())
}

type recordingDestination struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (d *recordingDestination) Name() string { return "recording" }

func (d *recordingDestination) Send(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *recordingDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.msgs)
}

// notifyingService emits one exit notification per processed event.
type notifyingService struct {
	notifier notify.Notifier
}

func (s notifyingService) Process(_ context.Context, raw event.RawEvent) ingest.Result {
	time.Sleep(2 * time.Millisecond)
	s.notifier.Notify(notify.Message{Kind: notify.KindExit, Audience: notify.AudienceAttendance, Text: raw.Body})
	return ingest.Result{Status: ingest.StatusHandled}
}

func TestRunBackground_DispatcherOutlivesWorkerDrain(t *testing.T) {
	dest := &recordingDestination{}
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{QueueSize: 64, Timeout: time.Second},
		[]notify.Destination{dest}, zap.NewNop())
	worker := ingest.NewWorker(notifyingService{notifier: dispatcher},
		ingest.WorkerConfig{Workers: 1, QueueSize: 64}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	runBackground(ctx, &wg, dispatcher, worker)

	const events = 20
	for i := 0; i < events; i++ {
		require.NoError(t, worker.Submit(context.Background(), event.RawEvent{Body: "e", ReceivedAt: time.Now()}))
	}
	cancel()
	wg.Wait()

	assert.Equal(t, events, dest.count())
}

func TestRouter_TerminalReplayNeverSeesNon200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ingestSvc := ingestMock.NewMockService(gomock.NewController(t))
	ingestSvc.EXPECT().Process(gomock.Any(), gomock.Any()).Return(ingest.Result{Status: ingest.StatusHandled}).AnyTimes()

	cfg := config.Config{Env: "test", Location: time.UTC, IngestRatePerSecond: 20, IngestRateBurst: 40}
	r := newRouter(cfg, zap.NewNop())
	registerModules(r, modules{
		ingest:     ingest.NewHandler(ingestSvc),
		attendance: attendance.NewHandler(attendanceMock.NewMockService(gomock.NewController(t)), time.UTC),
		cfg:        cfg,
	})

	codes := map[int]int{}
	statuses := map[string]int{}
	for i := 0; i < 60; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/hikvision/event", strings.NewReader("{}"))
		req.RemoteAddr = "192.168.1.190:41000"
		r.ServeHTTP(w, req)
		codes[w.Code]++
		statuses[w.Body.String()]++
	}

	assert.Equal(t, map[int]int{http.StatusOK: 60}, codes)
	assert.GreaterOrEqual(t, statuses[ingest.StatusHandled], 40)
	assert.Positive(t, statuses[ingest.StatusRateLimited])
}

func TestTelegramTimeout(t *testing.T) {
	assert.Equal(t, 3*time.Second, telegramTimeout(config.Config{NotificationTimeout: 3 * time.Second}))
	assert.Equal(t, 10*time.Second, telegramTimeout(config.Config{}))
}

func TestListenerAuditMeta(t *testing.T) {
	l := isup.NewListener(isup.ListenerConfig{Addr: "127.0.0.1:0"}, nil, zap.NewNop())
	require.NoError(t, l.Listen())
	defer l.Close()

	meta := listenerAuditMeta(l)()
	assert.Equal(t, 0, meta["open_sessions"])
	assert.Equal(t, l.Addr().String(), meta["isup_addr"])
}
