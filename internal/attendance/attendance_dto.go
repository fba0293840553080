package attendance

import "time"

const (
	dateLayout      = "2006-01-02"
	defaultPageSize = 50
)

type ReportRequest struct {
	StartDate  string `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate    string `form:"end_date" binding:"required,datetime=2006-01-02"`
	CompanyID  *int64 `form:"company_id" binding:"omitempty,gt=0"`
	EmployeeID *int64 `form:"employee_id" binding:"omitempty,gt=0"`
	Page       int    `form:"page" binding:"omitempty,gte=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,gte=1,lte=500"`
}

// ReportFilter is a parsed ReportRequest. Start and End are inclusive days.
// Page is 1-based; zero values select the first page of defaultPageSize.
type ReportFilter struct {
	Start      time.Time
	End        time.Time
	CompanyID  *int64
	EmployeeID *int64
	Page       int
	PageSize   int
}

func (f ReportFilter) offset() int {
	return (f.Page - 1) * f.PageSize
}

type ReportRow struct {
	EmployeeID  int64   `json:"employee_id"`
	FullName    string  `json:"full_name"`
	Date        string  `json:"date"`
	FirstEntry  *string `json:"first_entry"`
	LastExit    *string `json:"last_exit"`
	WorkedHours string  `json:"worked_hours"`
}
