package attendance

import "gorm.io/gorm"

// Migrate creates attendance_logs with the (employeeId, attendanceDate)
// unique index that backs one row per employee-day.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&AttendanceLog{})
}
