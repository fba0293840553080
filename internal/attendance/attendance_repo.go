package attendance

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=attendance_repo.go -destination=mock/attendance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForUpdate(ctx context.Context, employeeID int64, date time.Time) (*AttendanceLog, error)
	Create(ctx context.Context, a *AttendanceLog) error
	SetCheckinIfEmpty(ctx context.Context, id int64, at time.Time) (bool, error)
	SetCheckout(ctx context.Context, id int64, at time.Time) error
	// FindReport returns one page of report records and the total across all pages.
	FindReport(ctx context.Context, filter ReportFilter) ([]ReportRecord, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// FindForUpdate locks the employee-day row until the transaction ends.
func (r *repository) FindForUpdate(ctx context.Context, employeeID int64, date time.Time) (*AttendanceLog, error) {
	var a AttendanceLog
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employeeId = ?", employeeID).
		Where("attendanceDate = ?", date.Format(dateLayout)).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) Create(ctx context.Context, a *AttendanceLog) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// SetCheckinIfEmpty writes checkin only when none is stored and reports
// whether the row changed.
func (r *repository) SetCheckinIfEmpty(ctx context.Context, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&AttendanceLog{}).
		Where("id = ? AND checkin IS NULL", id).
		Update("checkin", at)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) SetCheckout(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&AttendanceLog{}).
		Where("id = ?", id).
		Update("checkout", at).Error
}

func (r *repository) FindReport(ctx context.Context, filter ReportFilter) ([]ReportRecord, int64, error) {
	q := r.db.WithContext(ctx).
		Table("attendance_logs AS al").
		Joins("JOIN employees e ON e.id = al.employeeId").
		Where("al.attendanceDate BETWEEN ? AND ?", filter.Start.Format(dateLayout), filter.End.Format(dateLayout))
	if filter.CompanyID != nil {
		q = q.Where("e.companyId = ?", *filter.CompanyID)
	}
	if filter.EmployeeID != nil {
		q = q.Where("al.employeeId = ?", *filter.EmployeeID)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || filter.offset() >= int(total) {
		return []ReportRecord{}, total, nil
	}

	var rows []ReportRecord
	err := q.
		Select("al.employeeId AS employee_id, e.fullName AS full_name, al.attendanceDate AS attendance_date, al.checkin, al.checkout").
		Order("al.attendanceDate DESC, e.fullName ASC").
		Offset(filter.offset()).
		Limit(filter.PageSize).
		Scan(&rows).Error
	return rows, total, err
}
