package port

import (
	"context"
	"io"

	"invoicedash/internal/domain"
)

// Document is a raw document handed to an extraction provider.
type Document struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult is returned once a provider has accepted a document.
type UploadResult struct {
	InvoiceID        string
	ProcessingTimeMs float64
}

// ExtractionResult carries the fields read from an uploaded document.
// OverallConfidence is the mean of the field confidences.
type ExtractionResult struct {
	Fields            []domain.ExtractedField
	OverallConfidence float64
	LineItems         []domain.LineItem
}

// ExtractionProvider abstracts the document understanding service. Transport
// failures are reported as *domain.NetworkError.
type ExtractionProvider interface {
	Upload(ctx context.Context, doc Document) (*UploadResult, error)
	Extract(ctx context.Context, invoiceID, fileName string) (*ExtractionResult, error)
	Validate(ctx context.Context, invoiceID string) (*domain.ValidationResult, error)
}
