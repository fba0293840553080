package employee

// Employee is the read-only view of the HR employees table. The table is
// owned by the HR CRUD application; column names follow its schema.
type Employee struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	FullName     string `gorm:"column:fullName"`
	Position     string `gorm:"column:position"`
	CompanyID    *int64 `gorm:"column:companyId"`
	DepartmentID *int64 `gorm:"column:departmentId"`
	Status       string `gorm:"column:status"`
}

func (Employee) TableName() string {
	return "employees"
}

// DirectoryEntry is what the ingestion pipeline needs to know about an employee.
type DirectoryEntry struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// DisplayName falls back to "ID <n>" when the record has no name.
func (e DirectoryEntry) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return fmtID(e.ID)
}
