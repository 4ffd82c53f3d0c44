package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicedash/internal/domain"
	"invoicedash/internal/middleware"
	"invoicedash/internal/service"
)

// SettingsHandler handles settings endpoints.
type SettingsHandler struct {
	settingsService service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetThresholds handles GET /api/v1/settings/thresholds
// @Summary Get confidence thresholds
// @Tags settings
// @Produce json
// @Success 200 {object} APIResponse{data=domain.ConfidenceThresholds} "Current thresholds"
// @Router /settings/thresholds [get]
func (h *SettingsHandler) GetThresholds(c *gin.Context) {
	t, err := h.settingsService.Thresholds(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, t)
}

// UpdateThresholds handles PUT /api/v1/settings/thresholds
// @Summary Update confidence thresholds
// @Description Affects routing of future uploads only.
// @Tags settings
// @Accept json
// @Produce json
// @Param request body domain.ConfidenceThresholds true "New thresholds"
// @Success 200 {object} APIResponse{data=domain.ConfidenceThresholds} "Updated thresholds"
// @Failure 400 {object} APIResponse "Invalid thresholds"
// @Router /settings/thresholds [put]
func (h *SettingsHandler) UpdateThresholds(c *gin.Context) {
	var req struct {
		AutoApprove *float64 `json:"auto_approve" binding:"required"`
		Review      *float64 `json:"review" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "auto_approve and review are required")
		return
	}

	t, err := h.settingsService.SetThresholds(c.Request.Context(), domain.ConfidenceThresholds{
		AutoApprove: *req.AutoApprove,
		Review:      *req.Review,
	}, middleware.GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, t)
}
