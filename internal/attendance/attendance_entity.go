package attendance

import (
	"time"
)

// AttendanceLog is one employee-day. Checkin holds the first entry of the
// day, Checkout the latest exit that arrived.
type AttendanceLog struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EmployeeID     int64      `gorm:"column:employeeId;not null;uniqueIndex:uq_attendance_employee_date,priority:1"`
	AttendanceDate time.Time  `gorm:"column:attendanceDate;type:date;not null;uniqueIndex:uq_attendance_employee_date,priority:2"`
	Checkin        *time.Time `gorm:"column:checkin"`
	Checkout       *time.Time `gorm:"column:checkout"`
	CreatedAt      time.Time  `gorm:"column:createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updatedAt"`
}

func (AttendanceLog) TableName() string {
	return "attendance_logs"
}

// Outcome is what Reconcile did with an event.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeIgnored Outcome = "ignored"
)

// ReportRecord is the raw joined row behind a report line.
type ReportRecord struct {
	EmployeeID     int64      `gorm:"column:employee_id"`
	FullName       string     `gorm:"column:full_name"`
	AttendanceDate time.Time  `gorm:"column:attendance_date"`
	Checkin        *time.Time `gorm:"column:checkin"`
	Checkout       *time.Time `gorm:"column:checkout"`
}
