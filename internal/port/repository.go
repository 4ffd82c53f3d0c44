package port

import "invoicedash/internal/domain"

// InvoiceRepository is the contract of the in-memory invoice store. Operations
// on an unknown id are no-ops reporting found=false.
type InvoiceRepository interface {
	Add(inv domain.Invoice) (domain.Invoice, error)
	Get(id string) (domain.Invoice, bool)
	List() []domain.Invoice
	Update(id string, patch domain.InvoiceUpdate) (domain.Invoice, bool)
	Delete(id string) bool
	Approve(id, user string) (domain.Invoice, bool)
	Reject(id, user, reason string) (domain.Invoice, bool)
	Flag(id, user, reason string) (domain.Invoice, bool)
	BulkApprove(ids []string, user string) []string
	EditField(id, fieldKey, newValue, user string) (domain.Invoice, bool)
	ReviewQueue() []domain.Invoice
	ByStatus(status domain.InvoiceStatus) []domain.Invoice
	Metrics() domain.DashboardMetrics
	Thresholds() domain.ConfidenceThresholds
	SetThresholds(t domain.ConfidenceThresholds) error
}
