package domain

import (
	"fmt"
	"time"
)

// BoundingBox locates an extracted field on the source document, in percent of page size.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ExtractedField is a single key/value pair read from a document, with the
// extractor's confidence in it.
type ExtractedField struct {
	Key           string       `json:"key"`
	Value         string       `json:"value"`
	Confidence    float64      `json:"confidence"`
	Explanation   string       `json:"explanation"`
	BoundingBox   *BoundingBox `json:"bounding_box,omitempty"`
	IsEdited      bool         `json:"is_edited"`
	OriginalValue *string      `json:"original_value,omitempty"`
}

// FieldChange records one field value transition inside an audit entry.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// AuditEntry is an immutable record on an invoice's audit trail.
type AuditEntry struct {
	ID        string        `json:"id"`
	Action    AuditAction   `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Details   string        `json:"details,omitempty"`
	Changes   []FieldChange `json:"changes,omitempty"`
}

// LineItem is one billed line of an invoice.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Invoice is an extracted invoice moving through review.
type Invoice struct {
	ID                string           `json:"id"`
	FileName          string           `json:"file_name"`
	UploadedAt        time.Time        `json:"uploaded_at"`
	Status            InvoiceStatus    `json:"status"`
	Stage             InvoiceStage     `json:"stage"`
	Vendor            string           `json:"vendor"`
	InvoiceNumber     string           `json:"invoice_number"`
	InvoiceDate       string           `json:"invoice_date"`
	DueDate           string           `json:"due_date"`
	TotalAmount       float64          `json:"total_amount"`
	Currency          string           `json:"currency"`
	LineItems         []LineItem       `json:"line_items"`
	ExtractedFields   []ExtractedField `json:"extracted_fields"`
	OverallConfidence float64          `json:"overall_confidence"`
	ProcessingTimeMs  float64          `json:"processing_time_ms"`
	DocumentURL       string           `json:"document_url,omitempty"`
	DocumentKey       string           `json:"document_key,omitempty"`
	AuditTrail        []AuditEntry     `json:"audit_trail"`
	Priority          Priority         `json:"priority"`
	AssignedTo        *string          `json:"assigned_to,omitempty"`
	SLADeadline       *time.Time       `json:"sla_deadline,omitempty"`
}

// Field returns the extracted field with the given key.
func (inv *Invoice) Field(key string) (*ExtractedField, bool) {
	for i := range inv.ExtractedFields {
		if inv.ExtractedFields[i].Key == key {
			return &inv.ExtractedFields[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the invoice, so callers never share slices or
// pointers with the store.
func (inv *Invoice) Clone() Invoice {
	out := *inv
	if inv.LineItems != nil {
		out.LineItems = append([]LineItem(nil), inv.LineItems...)
	}
	if inv.ExtractedFields != nil {
		out.ExtractedFields = make([]ExtractedField, len(inv.ExtractedFields))
		for i, f := range inv.ExtractedFields {
			if f.BoundingBox != nil {
				bb := *f.BoundingBox
				f.BoundingBox = &bb
			}
			if f.OriginalValue != nil {
				ov := *f.OriginalValue
				f.OriginalValue = &ov
			}
			out.ExtractedFields[i] = f
		}
	}
	if inv.AuditTrail != nil {
		out.AuditTrail = make([]AuditEntry, len(inv.AuditTrail))
		for i, e := range inv.AuditTrail {
			if e.Changes != nil {
				e.Changes = append([]FieldChange(nil), e.Changes...)
			}
			out.AuditTrail[i] = e
		}
	}
	if inv.AssignedTo != nil {
		a := *inv.AssignedTo
		out.AssignedTo = &a
	}
	if inv.SLADeadline != nil {
		d := *inv.SLADeadline
		out.SLADeadline = &d
	}
	return out
}

// InvoiceUpdate is a shallow patch applied by the store's Update operation.
// Nil fields are left untouched. Identity, confidence, priority, extracted
// fields and the audit trail are not patchable.
type InvoiceUpdate struct {
	FileName      *string        `json:"file_name"`
	Status        *InvoiceStatus `json:"status"`
	Stage         *InvoiceStage  `json:"stage"`
	Vendor        *string        `json:"vendor"`
	InvoiceNumber *string        `json:"invoice_number"`
	InvoiceDate   *string        `json:"invoice_date"`
	DueDate       *string        `json:"due_date"`
	TotalAmount   *float64       `json:"total_amount"`
	Currency      *string        `json:"currency"`
	LineItems     []LineItem     `json:"line_items"`
	DocumentURL   *string        `json:"document_url"`
	AssignedTo    *string        `json:"assigned_to"`
	SLADeadline   *time.Time     `json:"sla_deadline"`
}

// Apply merges the set fields of u into inv.
func (u *InvoiceUpdate) Apply(inv *Invoice) {
	if u.FileName != nil {
		inv.FileName = *u.FileName
	}
	if u.Status != nil {
		inv.Status = *u.Status
	}
	if u.Stage != nil {
		inv.Stage = *u.Stage
	}
	if u.Vendor != nil {
		inv.Vendor = *u.Vendor
	}
	if u.InvoiceNumber != nil {
		inv.InvoiceNumber = *u.InvoiceNumber
	}
	if u.InvoiceDate != nil {
		inv.InvoiceDate = *u.InvoiceDate
	}
	if u.DueDate != nil {
		inv.DueDate = *u.DueDate
	}
	if u.TotalAmount != nil {
		inv.TotalAmount = *u.TotalAmount
	}
	if u.Currency != nil {
		inv.Currency = *u.Currency
	}
	if u.LineItems != nil {
		inv.LineItems = append([]LineItem(nil), u.LineItems...)
	}
	if u.DocumentURL != nil {
		inv.DocumentURL = *u.DocumentURL
	}
	if u.AssignedTo != nil {
		a := *u.AssignedTo
		inv.AssignedTo = &a
	}
	if u.SLADeadline != nil {
		d := *u.SLADeadline
		inv.SLADeadline = &d
	}
}

// DashboardMetrics are summary statistics derived from the full invoice collection.
type DashboardMetrics struct {
	TotalInvoices           int     `json:"total_invoices"`
	ProcessedToday          int     `json:"processed_today"`
	PendingReview           int     `json:"pending_review"`
	Approved                int     `json:"approved"`
	Rejected                int     `json:"rejected"`
	AverageConfidence       float64 `json:"average_confidence"`
	ManualTimeSavedMinutes  int     `json:"manual_time_saved_minutes"`
	EstimatedCostSavings    float64 `json:"estimated_cost_savings"`
	ProductivityImprovement float64 `json:"productivity_improvement"`
	AutoApprovalRate        float64 `json:"auto_approval_rate"`
}

// ConfidenceThresholds drive the initial routing of a freshly extracted invoice.
type ConfidenceThresholds struct {
	AutoApprove float64 `json:"auto_approve"`
	Review      float64 `json:"review"`
}

// DefaultThresholds returns the out-of-the-box routing thresholds.
func DefaultThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{AutoApprove: 85, Review: 60}
}

// Validate checks that both thresholds are percentages and ordered.
func (t ConfidenceThresholds) Validate() error {
	if t.AutoApprove < 0 || t.AutoApprove > 100 || t.Review < 0 || t.Review > 100 {
		return fmt.Errorf("%w: thresholds must be between 0 and 100", ErrInvalidThresholds)
	}
	if t.Review > t.AutoApprove {
		return fmt.Errorf("%w: review threshold exceeds auto-approve threshold", ErrInvalidThresholds)
	}
	return nil
}

// Route decides where a newly extracted invoice with the given confidence lands.
func (t ConfidenceThresholds) Route(confidence float64) (InvoiceStatus, InvoiceStage) {
	if confidence >= t.AutoApprove {
		return StatusApproved, StageArchive
	}
	return StatusReview, StageReview
}

// ValidationResult is the outcome of a provider-side invoice validation.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// UploadJob tracks an asynchronous upload.
type UploadJob struct {
	ID          string     `json:"id"`
	FileName    string     `json:"file_name"`
	Status      JobStatus  `json:"status"`
	InvoiceID   string     `json:"invoice_id,omitempty"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// VendorBreakdown aggregates invoices per vendor.
type VendorBreakdown struct {
	Vendor      string  `json:"vendor"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"total_amount"`
}

// ConfidenceBucket counts invoices inside a confidence range.
type ConfidenceBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// DailyProcessed counts invoices uploaded on one calendar day.
type DailyProcessed struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	Automated int    `json:"automated"`
	Manual    int    `json:"manual"`
}

// DailySavings is the manual effort saved on one calendar day.
type DailySavings struct {
	Date             string  `json:"date"`
	TimeSavedMinutes int     `json:"time_saved_minutes"`
	CostSaved        float64 `json:"cost_saved"`
}

// Analytics are the chart-oriented breakdowns behind the analytics view.
type Analytics struct {
	DailyProcessed         []DailyProcessed   `json:"daily_processed"`
	VendorBreakdown        []VendorBreakdown  `json:"vendor_breakdown"`
	ConfidenceDistribution []ConfidenceBucket `json:"confidence_distribution"`
	SavingsOverTime        []DailySavings     `json:"savings_over_time"`
}
