package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uniattend-api/internal/dto"
	"github.com/noah-isme/uniattend-api/internal/models"
	appErrors "github.com/noah-isme/uniattend-api/pkg/errors"
	"github.com/noah-isme/uniattend-api/pkg/response"
)

type dashboardService interface {
	For(ctx context.Context, user models.User, query dto.DashboardQuery) (*dto.Dashboard, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Role dashboard
// @Description Returns the admin, faculty or student view for the session role
// @Tags Dashboard
// @Security BearerAuth
// @Produce json
// @Param subjectId query string false "Faculty: subject to build the roster for"
// @Param date query string false "Faculty: roster date (YYYY-MM-DD), default today"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	user, ok := sessionUser(c)
	if !ok {
		return
	}
	start := time.Now()
	board, err := h.service.For(c.Request.Context(), user, dto.DashboardQuery{
		SubjectID: c.Query("subjectId"),
		Date:      c.Query("date"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, map[string]interface{}{
		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}
