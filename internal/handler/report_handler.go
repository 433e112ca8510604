package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/service"
	"github.com/noah-isme/uniattend-api/pkg/response"
)

type reportService interface {
	AttendanceReport(ctx context.Context, filter models.AttendanceFilter, format service.ReportFormat) (*service.Report, error)
	StudentReport(ctx context.Context, studentID string, format service.ReportFormat) (*service.Report, error)
}

// ReportHandler exposes report downloads.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Attendance godoc
// @Summary Attendance register export
// @Tags Reports
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param subjectId query string false "Subject ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /reports/attendance [get]
func (h *ReportHandler) Attendance(c *gin.Context) {
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.AttendanceFilter{
		StudentID: strings.TrimSpace(c.Query("studentId")),
		SubjectID: strings.TrimSpace(c.Query("subjectId")),
		Date:      strings.TrimSpace(c.Query("date")),
	}
	report, err := h.reports.AttendanceReport(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Data)
}

// Student godoc
// @Summary Student attendance export
// @Tags Reports
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{id} [get]
func (h *ReportHandler) Student(c *gin.Context) {
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reports.StudentReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, report.Filename, report.ContentType, report.Data)
}
