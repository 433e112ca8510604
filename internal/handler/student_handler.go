package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniattend-api/internal/models"
	"github.com/noah-isme/uniattend-api/internal/service"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
	"github.com/noah-isme/uniattend-api/pkg/response"
)

type studentService interface {
	Create(ctx context.Context, req service.CreateStudentRequest) (*models.Student, error)
	List(ctx context.Context, filter service.StudentFilter) []models.Student
	Get(ctx context.Context, id string) (*models.Student, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param program query string false "Program"
// @Param year query int false "Year of study"
// @Param search query string false "Name or roll number fragment"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := service.StudentFilter{
		Program: strings.TrimSpace(c.Query("program")),
		Search:  c.Query("search"),
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a number"))
			return
		}
		filter.Year = year
	}
	students := h.service.List(c.Request.Context(), filter)
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"total": len(students)})
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Security BearerAuth
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}
