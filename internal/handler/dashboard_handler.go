package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoicedash/internal/service"
)

// maxAnalyticsDays bounds the analytics window.
const maxAnalyticsDays = 366

// DashboardHandler handles dashboard endpoints.
type DashboardHandler struct {
	dashboardService service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Metrics handles GET /api/v1/dashboard/metrics
// @Summary Get dashboard metrics
// @Description Summary statistics recomputed from the full invoice collection
// @Tags dashboard
// @Produce json
// @Success 200 {object} APIResponse{data=domain.DashboardMetrics} "Dashboard metrics"
// @Router /dashboard/metrics [get]
func (h *DashboardHandler) Metrics(c *gin.Context) {
	m, err := h.dashboardService.Metrics(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, m)
}

// Analytics handles GET /api/v1/dashboard/analytics
// @Summary Get dashboard analytics
// @Description Daily processed counts, vendor breakdown and confidence distribution
// @Tags dashboard
// @Produce json
// @Param days query int false "Number of days in the daily series" default(7)
// @Success 200 {object} APIResponse{data=domain.Analytics} "Analytics"
// @Failure 400 {object} APIResponse "Invalid days"
// @Router /dashboard/analytics [get]
func (h *DashboardHandler) Analytics(c *gin.Context) {
	days := service.DefaultAnalyticsDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAnalyticsDays {
			RespondError(c, http.StatusBadRequest, "INVALID_DAYS", "days must be an integer between 1 and 366")
			return
		}
		days = n
	}

	a, err := h.dashboardService.Analytics(c.Request.Context(), days)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, a)
}
