package domain

// FileType represents the allowed document types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedContentTypes maps MIME content types to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// InvoiceStatus is the review lifecycle status of an invoice.
type InvoiceStatus string

const (
	StatusProcessing InvoiceStatus = "processing"
	StatusExtracted  InvoiceStatus = "extracted"
	StatusReview     InvoiceStatus = "review"
	StatusApproved   InvoiceStatus = "approved"
	StatusRejected   InvoiceStatus = "rejected"
	StatusArchived   InvoiceStatus = "archived"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusExtracted, StatusReview, StatusApproved, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// InvoiceStage is the pipeline stage an invoice sits in. It is correlated with,
// but not identical to, InvoiceStatus.
type InvoiceStage string

const (
	StageUpload     InvoiceStage = "upload"
	StageExtraction InvoiceStage = "extraction"
	StageReview     InvoiceStage = "review"
	StageApproval   InvoiceStage = "approval"
	StageArchive    InvoiceStage = "archive"
)

// Valid reports whether s is a known stage.
func (s InvoiceStage) Valid() bool {
	switch s {
	case StageUpload, StageExtraction, StageReview, StageApproval, StageArchive:
		return true
	}
	return false
}

// Priority orders invoices in the review queue.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the queue rank of p; lower ranks are more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// PriorityForConfidence derives the review priority from an overall confidence score.
func PriorityForConfidence(confidence float64) Priority {
	switch {
	case confidence < 60:
		return PriorityHigh
	case confidence < 80:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// AuditAction is the kind of event recorded on an invoice's audit trail.
type AuditAction string

const (
	AuditUploaded  AuditAction = "uploaded"
	AuditExtracted AuditAction = "extracted"
	AuditEdited    AuditAction = "edited"
	AuditApproved  AuditAction = "approved"
	AuditRejected  AuditAction = "rejected"
	AuditFlagged   AuditAction = "flagged"
)

// ExportFormat is a serialization format for invoice exports.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

// JobStatus tracks an asynchronous upload through extraction.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)
