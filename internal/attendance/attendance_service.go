package attendance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	attendanceerrors "go-skud/internal/attendance/errors"
	"go-skud/internal/device"
	"go-skud/internal/event"
	"go-skud/internal/shared/keylock"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=attendance_service.go -destination=mock/attendance_service_mock.go -package=mock
type Service interface {
	Reconcile(ctx context.Context, ev event.NormalizedEvent) (Outcome, error)
	// GetReport returns one page of the report and the total row count.
	GetReport(ctx context.Context, filter ReportFilter) ([]ReportRow, int64, error)
}

type service struct {
	db     *gorm.DB
	repo   Repository
	locks  *keylock.Map
	logger *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		locks:  keylock.New(),
		logger: l,
	}
}

// Reconcile folds one attendance event into the employee-day record.
// Entries keep the first checkin; exits overwrite checkout.
func (s *service) Reconcile(ctx context.Context, ev event.NormalizedEvent) (Outcome, error) {
	if ev.Kind != event.KindAttendance || ev.EmployeeID <= 0 || !ev.Direction.Valid() || ev.Timestamp.IsZero() {
		return "", attendanceerrors.ErrInvalidEvent
	}

	date := ev.Date()
	unlock := s.locks.Lock(lockKey(ev.EmployeeID, date))
	defer unlock()

	outcome, err := s.reconcileTx(ctx, ev, date)
	if isRetryable(err) {
		s.logger.Info("reconcile lost a race, retrying",
			zap.Int64("employee_id", ev.EmployeeID),
			zap.String("date", date.Format(dateLayout)),
			zap.Error(err),
		)
		outcome, err = s.reconcileTx(ctx, ev, date)
	}
	if err != nil {
		return "", fmt.Errorf("reconcile employee %d on %s: %w", ev.EmployeeID, date.Format(dateLayout), err)
	}

	s.logger.Debug("attendance reconciled",
		zap.Int64("employee_id", ev.EmployeeID),
		zap.String("direction", string(ev.Direction)),
		zap.Time("at", ev.Timestamp),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}

func (s *service) reconcileTx(ctx context.Context, ev event.NormalizedEvent, date time.Time) (Outcome, error) {
	var outcome Outcome

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		existing, err := qtx.FindForUpdate(ctx, ev.EmployeeID, date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			existing = nil
		}

		at := ev.Timestamp
		if existing == nil {
			row := &AttendanceLog{EmployeeID: ev.EmployeeID, AttendanceDate: date}
			if ev.Direction == device.DirectionEntry {
				row.Checkin = &at
			} else {
				row.Checkout = &at
			}
			if err := qtx.Create(ctx, row); err != nil {
				return err
			}
			outcome = OutcomeCreated
			return nil
		}

		if ev.Direction == device.DirectionExit {
			if err := qtx.SetCheckout(ctx, existing.ID, at); err != nil {
				return err
			}
			outcome = OutcomeUpdated
			return nil
		}

		if existing.Checkin != nil {
			outcome = OutcomeIgnored
			return nil
		}
		changed, err := qtx.SetCheckinIfEmpty(ctx, existing.ID, at)
		if err != nil {
			return err
		}
		if changed {
			outcome = OutcomeUpdated
		} else {
			outcome = OutcomeIgnored
		}
		return nil
	})

	return outcome, err
}

func (s *service) GetReport(ctx context.Context, filter ReportFilter) ([]ReportRow, int64, error) {
	if filter.End.Before(filter.Start) {
		return nil, 0, attendanceerrors.ErrInvalidDateRange
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}

	records, total, err := s.repo.FindReport(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	rows := make([]ReportRow, len(records))
	for i, r := range records {
		rows[i] = mapToReportRow(r)
	}
	return rows, total, nil
}

func lockKey(employeeID int64, date time.Time) string {
	return strconv.FormatInt(employeeID, 10) + ":" + date.Format(dateLayout)
}

func mapToReportRow(r ReportRecord) ReportRow {
	row := ReportRow{
		EmployeeID:  r.EmployeeID,
		FullName:    r.FullName,
		Date:        r.AttendanceDate.Format(dateLayout),
		WorkedHours: WorkedHours(r.Checkin, r.Checkout),
	}
	if r.Checkin != nil {
		v := r.Checkin.Format(time.TimeOnly)
		row.FirstEntry = &v
	}
	if r.Checkout != nil {
		v := r.Checkout.Format(time.TimeOnly)
		row.LastExit = &v
	}
	return row
}

// WorkedHours renders checkout minus checkin as HH:MM, or N/A when either
// side is missing or the exit is not after the entry.
func WorkedHours(checkin, checkout *time.Time) string {
	if checkin == nil || checkout == nil || !checkout.After(*checkin) {
		return "N/A"
	}
	d := checkout.Sub(*checkin)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}
