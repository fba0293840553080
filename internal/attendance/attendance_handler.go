package attendance

import (
	"net/http"
	"time"

	"go-skud/internal/shared/apperror"
	"go-skud/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  Service
	location *time.Location
}

func NewHandler(service Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{service: service, location: loc}
}

func writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

// GetReport returns first entry, last exit and worked hours per employee-day.
func (h *Handler) GetReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	start, _ := time.ParseInLocation(dateLayout, req.StartDate, h.location)
	end, _ := time.ParseInLocation(dateLayout, req.EndDate, h.location)

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	rows, total, err := h.service.GetReport(c.Request.Context(), ReportFilter{
		Start:      start,
		End:        end,
		CompanyID:  req.CompanyID,
		EmployeeID: req.EmployeeID,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, rows, &meta)
}
