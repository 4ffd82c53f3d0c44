package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicedash/internal/domain"
	"invoicedash/internal/middleware"
	"invoicedash/internal/service"
)

// InvoiceHandler handles invoice review endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	intakeService  service.IntakeService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService, intakeService service.IntakeService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, intakeService: intakeService}
}

// reasonRequest is the optional body of reject and flag.
type reasonRequest struct {
	Reason string `json:"reason"`
}

// List handles GET /api/v1/invoices
// @Summary List invoices
// @Description List all invoices, optionally filtered by review status
// @Tags invoices
// @Produce json
// @Param status query string false "processing, extracted, review, approved, rejected or archived"
// @Success 200 {object} APIResponse{data=[]domain.Invoice,meta=Meta} "List of invoices"
// @Failure 400 {object} APIResponse "Unknown status"
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	invoices, err := h.invoiceService.List(c.Request.Context(), domain.InvoiceStatus(c.Query("status")))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondList(c, invoices, len(invoices))
}

// Create handles POST /api/v1/invoices
// @Summary Add an invoice
// @Description Add a fully formed invoice. The id is generated when omitted.
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body domain.Invoice true "Invoice"
// @Success 201 {object} APIResponse{data=domain.Invoice} "Invoice added"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 409 {object} APIResponse "Duplicate invoice id"
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req domain.Invoice
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be an invoice")
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, inv)
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Invoice"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	inv, err := h.invoiceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Update handles PATCH /api/v1/invoices/:id
// @Summary Patch an invoice
// @Description Shallow update of the header fields of an invoice. Omitted fields are untouched.
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body domain.InvoiceUpdate true "Fields to change"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Updated invoice"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id} [patch]
func (h *InvoiceHandler) Update(c *gin.Context) {
	var req domain.InvoiceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), c.Param("id"), req, middleware.GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
// @Summary Delete an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} APIResponse "Invoice deleted"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	if err := h.invoiceService.Delete(c.Request.Context(), c.Param("id"), middleware.GetActor(c)); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "invoice deleted"})
}

// Approve handles POST /api/v1/invoices/:id/approve
// @Summary Approve an invoice
// @Tags review
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Approved invoice"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id}/approve [post]
func (h *InvoiceHandler) Approve(c *gin.Context) {
	inv, err := h.invoiceService.Approve(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Reject handles POST /api/v1/invoices/:id/reject
// @Summary Reject an invoice
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body reasonRequest false "Rejection reason"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Rejected invoice"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id}/reject [post]
func (h *InvoiceHandler) Reject(c *gin.Context) {
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.Reject(c.Request.Context(), c.Param("id"), middleware.GetActor(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Flag handles POST /api/v1/invoices/:id/flag
// @Summary Flag an invoice for attention
// @Description Records a flag on the audit trail without changing the status.
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body reasonRequest false "Flag reason"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Flagged invoice"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id}/flag [post]
func (h *InvoiceHandler) Flag(c *gin.Context) {
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.Flag(c.Request.Context(), c.Param("id"), middleware.GetActor(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// EditField handles PUT /api/v1/invoices/:id/fields/:key
// @Summary Correct an extracted field
// @Description Overwrites the field value. The first edit preserves the extracted value.
// @Tags review
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param key path string true "Field key, e.g. Total Amount"
// @Param request body object{value=string} true "New value"
// @Success 200 {object} APIResponse{data=domain.Invoice} "Updated invoice"
// @Failure 400 {object} APIResponse "Missing value"
// @Failure 404 {object} APIResponse "Invoice or field not found"
// @Router /invoices/{id}/fields/{key} [put]
func (h *InvoiceHandler) EditField(c *gin.Context) {
	var req struct {
		Value *string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "value is required")
		return
	}

	inv, err := h.invoiceService.EditField(c.Request.Context(), c.Param("id"), c.Param("key"), *req.Value, middleware.GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// BulkApprove handles POST /api/v1/invoices/bulk-approve
// @Summary Approve several invoices
// @Description Unknown ids are skipped; the response lists the ids actually approved.
// @Tags review
// @Accept json
// @Produce json
// @Param request body object{ids=[]string} true "Invoice IDs"
// @Success 200 {object} APIResponse "Approved ids"
// @Failure 400 {object} APIResponse "Missing ids"
// @Router /invoices/bulk-approve [post]
func (h *InvoiceHandler) BulkApprove(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "ids is required")
		return
	}

	approved, err := h.invoiceService.BulkApprove(c.Request.Context(), req.IDs, middleware.GetActor(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"approved": approved, "count": len(approved)})
}

// Validate handles POST /api/v1/invoices/:id/validate
// @Summary Validate an invoice with the extraction provider
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} APIResponse{data=domain.ValidationResult} "Validation result"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 502 {object} APIResponse "Provider failure"
// @Failure 503 {object} APIResponse "Provider unavailable"
// @Router /invoices/{id}/validate [post]
func (h *InvoiceHandler) Validate(c *gin.Context) {
	res, err := h.intakeService.Validate(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// Document handles GET /api/v1/invoices/:id/document
// @Summary Get a download link for the source document
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} APIResponse{data=service.DocumentLink} "Temporary download URL"
// @Failure 404 {object} APIResponse "Invoice or document not found"
// @Router /invoices/{id}/document [get]
func (h *InvoiceHandler) Document(c *gin.Context) {
	link, err := h.intakeService.DocumentLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, link)
}

// ReviewQueue handles GET /api/v1/review-queue
// @Summary List invoices awaiting review
// @Description Ordered by priority, then by SLA deadline with missing deadlines last.
// @Tags review
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.Invoice,meta=Meta} "Review queue"
// @Router /review-queue [get]
func (h *InvoiceHandler) ReviewQueue(c *gin.Context) {
	queue, err := h.invoiceService.ReviewQueue(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondList(c, queue, len(queue))
}

// Export handles GET /api/v1/invoices/:id/export
// @Summary Export the extracted fields of an invoice
// @Tags export
// @Produce json,text/csv
// @Param id path string true "Invoice ID"
// @Param format query string false "json or csv" default(json)
// @Success 200 {file} file "Export download"
// @Failure 400 {object} APIResponse "Unsupported format"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id}/export [get]
func (h *InvoiceHandler) Export(c *gin.Context) {
	format := domain.ExportFormat(c.DefaultQuery("format", string(domain.ExportJSON)))
	file, err := h.invoiceService.ExportFields(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		HandleError(c, err)
		return
	}
	sendFile(c, file)
}

// ExportBatch handles POST /api/v1/invoices/export
// @Summary Export several invoices
// @Description Unknown ids are skipped. CSV rows are id,vendor,amount,date.
// @Tags export
// @Accept json
// @Produce json,text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body object{ids=[]string,format=string} true "Invoice IDs and format (json, csv or xlsx; default csv)"
// @Success 200 {file} file "Export download"
// @Failure 400 {object} APIResponse "Invalid request or unsupported format"
// @Router /invoices/export [post]
func (h *InvoiceHandler) ExportBatch(c *gin.Context) {
	var req struct {
		IDs    []string            `json:"ids" binding:"required"`
		Format domain.ExportFormat `json:"format"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "ids is required")
		return
	}
	if req.Format == "" {
		req.Format = domain.ExportCSV
	}

	file, err := h.invoiceService.ExportBatch(c.Request.Context(), req.IDs, req.Format)
	if err != nil {
		HandleError(c, err)
		return
	}
	sendFile(c, file)
}

func sendFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// bindOptionalJSON binds the body into dst when one is present. It writes a
// 400 response and returns false for a malformed body.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be a JSON object")
		return false
	}
	return true
}
