package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoicedash/internal/middleware"
	"invoicedash/internal/service"
)

// UploadHandler handles document upload endpoints.
type UploadHandler struct {
	intakeService service.IntakeService
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(intakeService service.IntakeService) *UploadHandler {
	return &UploadHandler{intakeService: intakeService}
}

// Upload handles POST /api/v1/uploads
// @Summary Upload an invoice document
// @Description Upload a PDF, JPG or PNG. The document is extracted and routed by confidence. With async=true the upload is queued and a job is returned.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice document (PDF, JPG, or PNG)"
// @Param async query bool false "Queue the upload and return a job"
// @Success 201 {object} APIResponse{data=domain.Invoice} "Invoice extracted"
// @Success 202 {object} APIResponse{data=domain.UploadJob} "Upload queued"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 429 {object} APIResponse "Rate limited"
// @Failure 502 {object} APIResponse "Extraction failed"
// @Failure 503 {object} APIResponse "Extraction unavailable or queue full"
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	req := service.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		User:        middleware.GetActor(c),
	}

	async, _ := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if async {
		job, err := h.intakeService.Submit(c.Request.Context(), req)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondAccepted(c, job)
		return
	}

	inv, err := h.intakeService.Process(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, inv)
}

// GetJob handles GET /api/v1/uploads/:id
// @Summary Poll an asynchronous upload
// @Tags uploads
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} APIResponse{data=domain.UploadJob} "Job status"
// @Failure 404 {object} APIResponse "Job not found"
// @Router /uploads/{id} [get]
func (h *UploadHandler) GetJob(c *gin.Context) {
	job, err := h.intakeService.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, job)
}
