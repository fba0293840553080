package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go-skud/internal/attendance"
	attendanceMock "go-skud/internal/attendance/mock"
	"go-skud/internal/device"
	"go-skud/internal/event"
	eventerrors "go-skud/internal/event/errors"
	eventMock "go-skud/internal/event/mock"
	"go-skud/internal/ingest"
	"go-skud/internal/notify"
	notifyMock "go-skud/internal/notify/mock"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type pipelineDeps struct {
	service    ingest.Service
	normalizer *eventMock.MockNormalizer
	attendance *attendanceMock.MockService
	notifier   *notifyMock.MockNotifier
}

func setupPipeline(t *testing.T) *pipelineDeps {
	ctrl := gomock.NewController(t)
	deps := &pipelineDeps{
		normalizer: eventMock.NewMockNormalizer(ctrl),
		attendance: attendanceMock.NewMockService(ctrl),
		notifier:   notifyMock.NewMockNotifier(ctrl),
	}
	deps.service = ingest.NewService(deps.normalizer, deps.attendance, deps.notifier, zap.NewNop())
	return deps
}

func normalized(dir device.Direction) event.NormalizedEvent {
	return event.NormalizedEvent{
		Kind:         event.KindAttendance,
		EmployeeID:   42,
		EmployeeName: "Rustam Karimov",
		DeviceName:   "Gate A",
		SourceAddr:   "192.168.1.190",
		Timestamp:    time.Date(2024, 3, 1, 8, 2, 0, 0, time.UTC),
		Direction:    dir,
	}
}

type kindMatcher notify.Kind

func (k kindMatcher) Matches(x any) bool {
	msg, ok := x.(notify.Message)
	return ok && msg.Kind == notify.Kind(k)
}

func (k kindMatcher) String() string { return "message of kind " + string(k) }

func kindIs(kind notify.Kind) gomock.Matcher { return kindMatcher(kind) }

func TestService_Process_Attendance(t *testing.T) {
	ctx := context.Background()
	raw := event.RawEvent{SourceAddr: "192.168.1.190", Body: `{"dateTime":"..."}`}

	t.Run("first entry is stored and announced", func(t *testing.T) {
		deps := setupPipeline(t)
		ev := normalized(device.DirectionEntry)

		deps.normalizer.EXPECT().Normalize(gomock.Any(), raw).Return(ev, nil)
		deps.attendance.EXPECT().Reconcile(gomock.Any(), ev).Return(attendance.OutcomeCreated, nil)
		deps.notifier.EXPECT().Notify(kindIs(notify.KindEntry))

		res := deps.service.Process(ctx, raw)
		assert.Equal(t, ingest.StatusHandled, res.Status)
		assert.Equal(t, attendance.OutcomeCreated, res.Outcome)
		assert.Empty(t, res.Reason)
	})

	t.Run("duplicate entry stays silent", func(t *testing.T) {
		deps := setupPipeline(t)
		ev := normalized(device.DirectionEntry)

		deps.normalizer.EXPECT().Normalize(gomock.Any(), raw).Return(ev, nil)
		deps.attendance.EXPECT().Reconcile(gomock.Any(), ev).Return(attendance.OutcomeIgnored, nil)

		res := deps.service.Process(ctx, raw)
		assert.Equal(t, ingest.StatusDuplicateEntry, res.Status)
	})

	t.Run("every exit is announced", func(t *testing.T) {
		deps := setupPipeline(t)
		ev := normalized(device.DirectionExit)

		deps.normalizer.EXPECT().Normalize(gomock.Any(), raw).Return(ev, nil)
		deps.attendance.EXPECT().Reconcile(gomock.Any(), ev).Return(attendance.OutcomeUpdated, nil)
		deps.notifier.EXPECT().Notify(kindIs(notify.KindExit))

		res := deps.service.Process(ctx, raw)
		assert.Equal(t, ingest.StatusHandled, res.Status)
	})

	t.Run("persistence failure is swallowed without notification", func(t *testing.T) {
		deps := setupPipeline(t)
		ev := normalized(device.DirectionEntry)

		deps.normalizer.EXPECT().Normalize(gomock.Any(), raw).Return(ev, nil)
		deps.attendance.EXPECT().Reconcile(gomock.Any(), ev).Return(attendance.Outcome(""), errors.New("deadlock"))

		res := deps.service.Process(ctx, raw)
		assert.Equal(t, ingest.StatusError, res.Status)
	})
}

func TestService_Process_Rejections(t *testing.T) {
	ctx := context.Background()
	raw := event.RawEvent{SourceAddr: "10.0.0.9", Body: "x"}

	cases := []struct {
		name   string
		err    error
		status string
		notify notify.Kind
	}{
		{"no payload", eventerrors.ErrNoPayload, ingest.StatusNoPayload, ""},
		{"stale", eventerrors.ErrStaleEvent, ingest.StatusStale, ""},
		{"not access", eventerrors.ErrNotAccessEvent, ingest.StatusNotAccess, ""},
		{"no employee", eventerrors.ErrNoEmployee, ingest.StatusNoEmployee, ""},
		{"invalid employee", fmt.Errorf("%w: %q", eventerrors.ErrInvalidEmployeeID, "abc"), ingest.StatusInvalidEmployee, ""},
		{"invalid timestamp", fmt.Errorf("%w: %q", eventerrors.ErrInvalidTimestamp, ""), ingest.StatusInvalidTimestamp, ""},
		{"unknown terminal", fmt.Errorf("%w: 10.0.0.9", eventerrors.ErrUnknownTerminal), ingest.StatusUnknownTerminal, notify.KindUnknownTerminal},
		{"unknown employee", fmt.Errorf("%w: 42", eventerrors.ErrUnknownEmployee), ingest.StatusUnknownEmployee, notify.KindUnknownEmployee},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupPipeline(t)
			deps.normalizer.EXPECT().Normalize(gomock.Any(), raw).Return(normalized(""), tc.err)
			if tc.notify != "" {
				deps.notifier.EXPECT().Notify(kindIs(tc.notify))
			}

			res := deps.service.Process(ctx, raw)
			assert.Equal(t, tc.status, res.Status)
			assert.Equal(t, eventerrors.Reason(tc.err), res.Reason)
		})
	}

	t.Run("directory outage is an error, not a rejection", func(t *testing.T) {
		deps := setupPipeline(t)
		deps.normalizer.EXPECT().Normalize(gomock.Any(), raw).
			Return(normalized(device.DirectionEntry), errors.New("employee lookup 42: connection refused"))

		res := deps.service.Process(ctx, raw)
		assert.Equal(t, ingest.StatusError, res.Status)
		assert.Empty(t, res.Reason)
	})
}

func TestService_Process_RemoteUnlockBypassesAttendance(t *testing.T) {
	deps := setupPipeline(t)
	ev := normalized("")
	ev.Kind = event.KindRemoteUnlock
	ev.EmployeeID = 0

	deps.normalizer.EXPECT().Normalize(gomock.Any(), gomock.Any()).Return(ev, nil)
	deps.notifier.EXPECT().Notify(kindIs(notify.KindRemoteUnlock))

	res := deps.service.Process(context.Background(), event.RawEvent{})
	assert.Equal(t, ingest.StatusRemoteUnlock, res.Status)
	assert.Equal(t, event.KindRemoteUnlock, res.Kind)
}
