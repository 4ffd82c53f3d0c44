// Package store holds the canonical in-memory invoice collection and models
// the invoice review lifecycle on top of it.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoicedash/internal/dashboard"
	"invoicedash/internal/domain"
	"invoicedash/internal/port"
)

var _ port.InvoiceRepository = (*InvoiceStore)(nil)

const (
	approvedDetails     = "Invoice approved for payment"
	bulkApprovedDetails = "Bulk approved"
)

// Option configures an InvoiceStore.
type Option func(*InvoiceStore)

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceStore) { s.now = now }
}

// WithIDGenerator overrides the generator used for audit entry ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *InvoiceStore) { s.newID = newID }
}

// WithThresholds sets the initial confidence thresholds.
func WithThresholds(t domain.ConfidenceThresholds) Option {
	return func(s *InvoiceStore) { s.thresholds = t }
}

// WithMetricsHook registers fn to be called with every recomputed metrics
// snapshot. fn runs while the store lock is held and must not call back into
// the store.
func WithMetricsHook(fn func(domain.DashboardMetrics)) Option {
	return func(s *InvoiceStore) { s.onRecompute = fn }
}

// InvoiceStore owns the ordered invoice collection, the routing thresholds and
// the dashboard metrics derived from the collection.
//
// Every operation is atomic. Operations addressing an id that is not present
// are no-ops and report found=false; they never fail. Returned invoices are
// deep copies.
type InvoiceStore struct {
	mu         sync.RWMutex
	invoices   []domain.Invoice
	index      map[string]int
	thresholds domain.ConfidenceThresholds
	metrics    domain.DashboardMetrics

	now         func() time.Time
	newID       func() string
	onRecompute func(domain.DashboardMetrics)
}

// New creates an empty InvoiceStore.
func New(opts ...Option) *InvoiceStore {
	s := &InvoiceStore{
		index:      make(map[string]int),
		thresholds: domain.DefaultThresholds(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recompute()
	return s
}

// Add appends inv to the collection. An invoice whose id is already present is
// rejected with domain.ErrDuplicateInvoice.
func (s *InvoiceStore) Add(inv domain.Invoice) (domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[inv.ID]; exists {
		return domain.Invoice{}, fmt.Errorf("%w: %s", domain.ErrDuplicateInvoice, inv.ID)
	}
	s.invoices = append(s.invoices, inv.Clone())
	s.index[inv.ID] = len(s.invoices) - 1
	s.recompute()
	return inv.Clone(), nil
}

// Get returns the invoice with the given id.
func (s *InvoiceStore) Get(id string) (domain.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return domain.Invoice{}, false
	}
	return s.invoices[pos].Clone(), true
}

// List returns every invoice in collection order.
func (s *InvoiceStore) List() []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(*domain.Invoice) bool { return true })
}

// Update shallow-merges patch into the invoice with the given id.
func (s *InvoiceStore) Update(id string, patch domain.InvoiceUpdate) (domain.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookup(id)
	if !ok {
		return domain.Invoice{}, false
	}
	patch.Apply(inv)
	s.recompute()
	return inv.Clone(), true
}

// Delete removes the invoice with the given id if present.
func (s *InvoiceStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return false
	}
	s.invoices = append(s.invoices[:pos], s.invoices[pos+1:]...)
	s.reindex()
	s.recompute()
	return true
}

// Approve marks the invoice approved and moves it to the archive stage.
func (s *InvoiceStore) Approve(id, user string) (domain.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookup(id)
	if !ok {
		return domain.Invoice{}, false
	}
	s.approve(inv, user, approvedDetails)
	s.recompute()
	return inv.Clone(), true
}

// Reject marks the invoice rejected, recording reason on the audit trail. The
// stage is left unchanged.
func (s *InvoiceStore) Reject(id, user, reason string) (domain.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookup(id)
	if !ok {
		return domain.Invoice{}, false
	}
	inv.Status = domain.StatusRejected
	s.appendAudit(inv, domain.AuditEntry{Action: domain.AuditRejected, User: user, Details: reason})
	s.recompute()
	return inv.Clone(), true
}

// Flag records a flagged audit entry without changing the invoice's status.
func (s *InvoiceStore) Flag(id, user, reason string) (domain.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookup(id)
	if !ok {
		return domain.Invoice{}, false
	}
	s.appendAudit(inv, domain.AuditEntry{Action: domain.AuditFlagged, User: user, Details: reason})
	return inv.Clone(), true
}

// BulkApprove approves every invoice whose id is in ids. Unknown ids are
// ignored. Metrics are recomputed once. It returns the ids that were approved,
// in collection order.
func (s *InvoiceStore) BulkApprove(ids []string, user string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	approved := make([]string, 0, len(wanted))
	for i := range s.invoices {
		inv := &s.invoices[i]
		if _, ok := wanted[inv.ID]; !ok {
			continue
		}
		s.approve(inv, user, bulkApprovedDetails)
		approved = append(approved, inv.ID)
	}
	s.recompute()
	return approved
}

// EditField replaces the value of one extracted field. The first edit of a
// field preserves its pre-edit value in OriginalValue; later edits leave it
// alone. Metrics are not recomputed since edits never touch confidence.
func (s *InvoiceStore) EditField(id, fieldKey, newValue, user string) (domain.Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookup(id)
	if !ok {
		return domain.Invoice{}, false
	}
	field, ok := inv.Field(fieldKey)
	if !ok {
		return domain.Invoice{}, false
	}

	previous := field.Value
	if field.OriginalValue == nil {
		original := previous
		field.OriginalValue = &original
	}
	field.Value = newValue
	field.IsEdited = true

	s.appendAudit(inv, domain.AuditEntry{
		Action:  domain.AuditEdited,
		User:    user,
		Changes: []domain.FieldChange{{Field: fieldKey, From: previous, To: newValue}},
	})
	return inv.Clone(), true
}

// ReviewQueue returns invoices awaiting review, most urgent priority first,
// then soonest SLA deadline. Within a priority, invoices without a deadline
// come after those with one. Ties keep collection order.
func (s *InvoiceStore) ReviewQueue() []domain.Invoice {
	s.mu.RLock()
	queue := s.filter(func(inv *domain.Invoice) bool { return inv.Status == domain.StatusReview })
	s.mu.RUnlock()

	sort.SliceStable(queue, func(i, j int) bool {
		a, b := &queue[i], &queue[j]
		if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
			return ra < rb
		}
		switch {
		case a.SLADeadline != nil && b.SLADeadline != nil:
			return a.SLADeadline.Before(*b.SLADeadline)
		case a.SLADeadline != nil:
			return true
		default:
			return false
		}
	})
	return queue
}

// ByStatus returns invoices with the given status in collection order.
func (s *InvoiceStore) ByStatus(status domain.InvoiceStatus) []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter(func(inv *domain.Invoice) bool { return inv.Status == status })
}

// Metrics returns the metrics computed after the last recomputing mutation.
func (s *InvoiceStore) Metrics() domain.DashboardMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// Thresholds returns the current routing thresholds.
func (s *InvoiceStore) Thresholds() domain.ConfidenceThresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// SetThresholds replaces the routing thresholds after validating them.
func (s *InvoiceStore) SetThresholds(t domain.ConfidenceThresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds = t
	return nil
}

func (s *InvoiceStore) approve(inv *domain.Invoice, user, details string) {
	inv.Status = domain.StatusApproved
	inv.Stage = domain.StageArchive
	s.appendAudit(inv, domain.AuditEntry{Action: domain.AuditApproved, User: user, Details: details})
}

func (s *InvoiceStore) appendAudit(inv *domain.Invoice, entry domain.AuditEntry) {
	entry.ID = s.newID()
	entry.Timestamp = s.now()
	inv.AuditTrail = append(inv.AuditTrail, entry)
}

func (s *InvoiceStore) lookup(id string) (*domain.Invoice, bool) {
	pos, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.invoices[pos], true
}

func (s *InvoiceStore) filter(keep func(*domain.Invoice) bool) []domain.Invoice {
	out := make([]domain.Invoice, 0, len(s.invoices))
	for i := range s.invoices {
		if keep(&s.invoices[i]) {
			out = append(out, s.invoices[i].Clone())
		}
	}
	return out
}

func (s *InvoiceStore) reindex() {
	s.index = make(map[string]int, len(s.invoices))
	for i := range s.invoices {
		s.index[s.invoices[i].ID] = i
	}
}

// recompute must be called with the write lock held.
func (s *InvoiceStore) recompute() {
	s.metrics = dashboard.ComputeMetrics(s.invoices)
	if s.onRecompute != nil {
		s.onRecompute(s.metrics)
	}
}
