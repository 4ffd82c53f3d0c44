package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoicedash/internal/domain"
	"invoicedash/internal/export"
	"invoicedash/internal/port"
)

// ExportFile is a rendered export ready to be sent as a download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// InvoiceService exposes the invoice review lifecycle. Unknown ids surface as
// domain.ErrInvoiceNotFound.
type InvoiceService interface {
	List(ctx context.Context, status domain.InvoiceStatus) ([]domain.Invoice, error)
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	Create(ctx context.Context, inv domain.Invoice, actor string) (*domain.Invoice, error)
	Update(ctx context.Context, id string, patch domain.InvoiceUpdate, actor string) (*domain.Invoice, error)
	Delete(ctx context.Context, id, actor string) error
	Approve(ctx context.Context, id, actor string) (*domain.Invoice, error)
	Reject(ctx context.Context, id, actor, reason string) (*domain.Invoice, error)
	Flag(ctx context.Context, id, actor, reason string) (*domain.Invoice, error)
	EditField(ctx context.Context, id, fieldKey, value, actor string) (*domain.Invoice, error)
	BulkApprove(ctx context.Context, ids []string, actor string) ([]string, error)
	ReviewQueue(ctx context.Context) ([]domain.Invoice, error)
	ExportFields(ctx context.Context, id string, format domain.ExportFormat) (*ExportFile, error)
	ExportBatch(ctx context.Context, ids []string, format domain.ExportFormat) (*ExportFile, error)
}

type invoiceService struct {
	repo      port.InvoiceRepository
	publisher port.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(repo port.InvoiceRepository, publisher port.EventPublisher, log zerolog.Logger) InvoiceService {
	return &invoiceService{
		repo:      repo,
		publisher: publisher,
		log:       log.With().Str("component", "invoice_service").Logger(),
		now:       time.Now,
	}
}

func (s *invoiceService) List(_ context.Context, status domain.InvoiceStatus) ([]domain.Invoice, error) {
	if status == "" {
		return s.repo.List(), nil
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	return s.repo.ByStatus(status), nil
}

func (s *invoiceService) Get(_ context.Context, id string) (*domain.Invoice, error) {
	inv, ok := s.repo.Get(id)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (s *invoiceService) Create(ctx context.Context, inv domain.Invoice, actor string) (*domain.Invoice, error) {
	if inv.ID == "" {
		inv.ID = "inv-" + uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = domain.StatusReview
	}
	if inv.Stage == "" {
		inv.Stage = domain.StageReview
	}
	if !inv.Status.Valid() || !inv.Stage.Valid() {
		return nil, fmt.Errorf("%w: unknown status or stage", domain.ErrValidation)
	}
	if inv.OverallConfidence < 0 || inv.OverallConfidence > 100 {
		return nil, fmt.Errorf("%w: overall confidence %.2f outside 0-100", domain.ErrValidation, inv.OverallConfidence)
	}
	inv.Priority = domain.PriorityForConfidence(inv.OverallConfidence)
	if inv.UploadedAt.IsZero() {
		inv.UploadedAt = s.now()
	}
	inv.AuditTrail = withIntakeAudit(inv.AuditTrail, &inv, actor)

	created, err := s.repo.Add(inv)
	if err != nil {
		s.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("invoiceService.Create: rejected")
		return nil, err
	}

	s.log.Info().Str("invoice_id", created.ID).Str("actor", actor).Str("status", string(created.Status)).
		Msg("invoiceService.Create: invoice added")
	s.publish(ctx, port.EventInvoiceCreated, &created, actor, map[string]interface{}{
		"status":             created.Status,
		"overall_confidence": created.OverallConfidence,
	})
	return &created, nil
}

func (s *invoiceService) Update(ctx context.Context, id string, patch domain.InvoiceUpdate, actor string) (*domain.Invoice, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *patch.Status)
	}
	if patch.Stage != nil && !patch.Stage.Valid() {
		return nil, fmt.Errorf("%w: unknown stage %q", domain.ErrValidation, *patch.Stage)
	}

	inv, ok := s.repo.Update(id, patch)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	s.log.Info().Str("invoice_id", id).Str("actor", actor).Msg("invoiceService.Update: invoice updated")
	s.publish(ctx, port.EventInvoiceUpdated, &inv, actor, nil)
	return &inv, nil
}

func (s *invoiceService) Delete(ctx context.Context, id, actor string) error {
	if !s.repo.Delete(id) {
		return domain.ErrInvoiceNotFound
	}
	s.log.Info().Str("invoice_id", id).Str("actor", actor).Msg("invoiceService.Delete: invoice deleted")
	s.publish(ctx, port.EventInvoiceDeleted, &domain.Invoice{ID: id}, actor, nil)
	return nil
}

func (s *invoiceService) Approve(ctx context.Context, id, actor string) (*domain.Invoice, error) {
	inv, ok := s.repo.Approve(id, actor)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	s.log.Info().Str("invoice_id", id).Str("actor", actor).Msg("invoiceService.Approve: invoice approved")
	s.publish(ctx, port.EventInvoiceApproved, &inv, actor, nil)
	return &inv, nil
}

func (s *invoiceService) Reject(ctx context.Context, id, actor, reason string) (*domain.Invoice, error) {
	inv, ok := s.repo.Reject(id, actor, reason)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	s.log.Info().Str("invoice_id", id).Str("actor", actor).Str("reason", reason).Msg("invoiceService.Reject: invoice rejected")
	s.publish(ctx, port.EventInvoiceRejected, &inv, actor, map[string]interface{}{"reason": reason})
	return &inv, nil
}

func (s *invoiceService) Flag(ctx context.Context, id, actor, reason string) (*domain.Invoice, error) {
	inv, ok := s.repo.Flag(id, actor, reason)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	s.log.Info().Str("invoice_id", id).Str("actor", actor).Str("reason", reason).Msg("invoiceService.Flag: invoice flagged")
	s.publish(ctx, port.EventInvoiceFlagged, &inv, actor, map[string]interface{}{"reason": reason})
	return &inv, nil
}

func (s *invoiceService) EditField(ctx context.Context, id, fieldKey, value, actor string) (*domain.Invoice, error) {
	current, ok := s.repo.Get(id)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	if _, ok := current.Field(fieldKey); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFieldNotFound, fieldKey)
	}

	inv, ok := s.repo.EditField(id, fieldKey, value, actor)
	if !ok {
		// Deleted between the lookup and the edit.
		return nil, domain.ErrInvoiceNotFound
	}

	last := inv.AuditTrail[len(inv.AuditTrail)-1]
	s.log.Info().Str("invoice_id", id).Str("actor", actor).Str("field", fieldKey).Msg("invoiceService.EditField: field edited")
	s.publish(ctx, port.EventInvoiceEdited, &inv, actor, map[string]interface{}{"changes": last.Changes})
	return &inv, nil
}

func (s *invoiceService) BulkApprove(ctx context.Context, ids []string, actor string) ([]string, error) {
	approved := s.repo.BulkApprove(ids, actor)
	s.log.Info().Int("requested", len(ids)).Int("approved", len(approved)).Str("actor", actor).
		Msg("invoiceService.BulkApprove: bulk approval done")
	for _, id := range approved {
		s.publish(ctx, port.EventInvoiceApproved, &domain.Invoice{ID: id}, actor, map[string]interface{}{"bulk": true})
	}
	return approved, nil
}

func (s *invoiceService) ReviewQueue(_ context.Context) ([]domain.Invoice, error) {
	return s.repo.ReviewQueue(), nil
}

func (s *invoiceService) ExportFields(_ context.Context, id string, format domain.ExportFormat) (*ExportFile, error) {
	inv, ok := s.repo.Get(id)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	data, err := export.Fields(format, &inv)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Filename:    export.InvoiceFilename(&inv, format),
		ContentType: export.ContentType(format),
		Data:        data,
	}, nil
}

// ExportBatch renders the invoices with the given ids in request order.
// Unknown ids are skipped.
func (s *invoiceService) ExportBatch(_ context.Context, ids []string, format domain.ExportFormat) (*ExportFile, error) {
	invoices := make([]domain.Invoice, 0, len(ids))
	for _, id := range ids {
		if inv, ok := s.repo.Get(id); ok {
			invoices = append(invoices, inv)
		}
	}

	now := s.now()
	data, err := export.Batch(format, invoices, now)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("requested", len(ids)).Int("exported", len(invoices)).Str("format", string(format)).
		Msg("invoiceService.ExportBatch: export rendered")
	return &ExportFile{
		Filename:    export.BatchFilename(format, now),
		ContentType: export.ContentType(format),
		Data:        data,
	}, nil
}

// publish sends a lifecycle event. Failures are logged and never returned.
func (s *invoiceService) publish(ctx context.Context, eventType string, inv *domain.Invoice, actor string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if inv.Status != "" {
		payload["status"] = inv.Status
	}
	event := port.InvoiceEvent{
		EventType:  eventType,
		InvoiceID:  inv.ID,
		Actor:      actor,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", eventType).
			Str("invoice_id", inv.ID).
			Msg("failed to publish invoice event (non-fatal)")
	}
}

// withIntakeAudit makes trail start with the uploaded and extracted entries,
// inserting whichever of the two is missing.
func withIntakeAudit(trail []domain.AuditEntry, inv *domain.Invoice, actor string) []domain.AuditEntry {
	head := make([]domain.AuditEntry, 0, len(trail)+2)
	if len(trail) > 0 && trail[0].Action == domain.AuditUploaded {
		head, trail = append(head, trail[0]), trail[1:]
	} else {
		head = append(head, domain.AuditEntry{
			ID:        uuid.NewString(),
			Action:    domain.AuditUploaded,
			Timestamp: inv.UploadedAt,
			User:      actor,
			Details:   "Invoice created via API",
		})
	}
	if len(trail) > 0 && trail[0].Action == domain.AuditExtracted {
		head, trail = append(head, trail[0]), trail[1:]
	} else {
		head = append(head, domain.AuditEntry{
			ID:        uuid.NewString(),
			Action:    domain.AuditExtracted,
			Timestamp: inv.UploadedAt,
			User:      actor,
			Details:   fmt.Sprintf("Imported %d fields with %.1f%% confidence", len(inv.ExtractedFields), inv.OverallConfidence),
		})
	}
	return append(head, trail...)
}
