package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniattend-api/internal/dto"
	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/service"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
	"github.com/noah-isme/uniattend-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, user models.User, req service.MarkAttendanceRequest) (*models.AttendanceRecord, error)
	List(ctx context.Context, filter models.AttendanceFilter) []models.AttendanceRecord
	Roster(ctx context.Context, subjectID, date string) (*dto.Roster, error)
}

// AttendanceHandler exposes the marking workflow.
type AttendanceHandler struct {
	service attendanceService
	now     func() time.Time
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, now: time.Now}
}

// Mark godoc
// @Summary Mark attendance
// @Description Records one status for a student, subject and date. A second mark for the same triple is rejected with 409.
// @Tags Attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		req.Date = h.now().Format(models.DateLayout)
	}
	record, err := h.service.Mark(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Param studentId query string false "Student ID"
// @Param subjectId query string false "Subject ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param status query string false "present, absent or late"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter := models.AttendanceFilter{
		StudentID: strings.TrimSpace(c.Query("studentId")),
		SubjectID: strings.TrimSpace(c.Query("subjectId")),
		Date:      strings.TrimSpace(c.Query("date")),
		Status:    models.AttendanceStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be present, absent or late"))
		return
	}
	records := h.service.List(c.Request.Context(), filter)
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"total": len(records)})
}

// Roster godoc
// @Summary Marking roster for a subject
// @Description Eligible students for the subject with their status on the date (default today)
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Param subjectId query string true "Subject ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/roster [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	subjectID := strings.TrimSpace(c.Query("subjectId"))
	if subjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectId is required"))
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = h.now().Format(models.DateLayout)
	}
	roster, err := h.service.Roster(c.Request.Context(), subjectID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster)
}
