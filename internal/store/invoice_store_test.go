package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedash/internal/domain"
)

var baseTime = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

type recorder struct {
	calls int
	last  domain.DashboardMetrics
}

func (r *recorder) hook(m domain.DashboardMetrics) {
	r.calls++
	r.last = m
}

func newTestStore(t *testing.T, invoices ...domain.Invoice) (*InvoiceStore, *recorder) {
	t.Helper()
	rec := &recorder{}
	seq := 0
	s := New(
		WithClock(func() time.Time { return baseTime }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("audit-%d", seq)
		}),
		WithMetricsHook(rec.hook),
	)
	for _, inv := range invoices {
		_, err := s.Add(inv)
		require.NoError(t, err)
	}
	rec.calls = 0
	return s, rec
}

func newInvoice(id string, confidence float64, status domain.InvoiceStatus) domain.Invoice {
	return domain.Invoice{
		ID:                id,
		FileName:          id + ".pdf",
		UploadedAt:        baseTime,
		Status:            status,
		Stage:             domain.StageReview,
		Vendor:            "Acme Corp",
		Currency:          "USD",
		OverallConfidence: confidence,
		Priority:          domain.PriorityForConfidence(confidence),
		ExtractedFields: []domain.ExtractedField{
			{Key: "Invoice Number", Value: "INV-001", Confidence: confidence},
			{Key: "Total Amount", Value: "$1,200.00", Confidence: confidence},
		},
		AuditTrail: []domain.AuditEntry{
			{ID: "a1", Action: domain.AuditUploaded, Timestamp: baseTime, User: "Sarah Johnson"},
			{ID: "a2", Action: domain.AuditExtracted, Timestamp: baseTime, User: "AI Engine v2.1"},
		},
	}
}

func withSLA(inv domain.Invoice, priority domain.Priority, offset time.Duration) domain.Invoice {
	inv.Priority = priority
	deadline := baseTime.Add(offset)
	inv.SLADeadline = &deadline
	return inv
}

func ids(invoices []domain.Invoice) []string {
	out := make([]string, len(invoices))
	for i := range invoices {
		out[i] = invoices[i].ID
	}
	return out
}

func TestAdd_AppendsAndRecomputes(t *testing.T) {
	s, rec := newTestStore(t)

	_, err := s.Add(newInvoice("inv-1", 90, domain.StatusApproved))
	require.NoError(t, err)
	_, err = s.Add(newInvoice("inv-2", 50, domain.StatusReview))
	require.NoError(t, err)

	assert.Equal(t, []string{"inv-1", "inv-2"}, ids(s.List()))
	assert.Equal(t, 2, rec.calls)
	assert.Equal(t, 2, s.Metrics().TotalInvoices)
	assert.Equal(t, 1, s.Metrics().PendingReview)
}

func TestAdd_DuplicateRejected(t *testing.T) {
	s, rec := newTestStore(t, newInvoice("inv-1", 90, domain.StatusApproved))

	_, err := s.Add(newInvoice("inv-1", 40, domain.StatusReview))

	require.ErrorIs(t, err, domain.ErrDuplicateInvoice)
	assert.Len(t, s.List(), 1)
	assert.Equal(t, 0, rec.calls)
	got, ok := s.Get("inv-1")
	require.True(t, ok)
	assert.Equal(t, 90.0, got.OverallConfidence)
}

func TestApprove_SetsStatusStageAndAudit(t *testing.T) {
	s, rec := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))

	got, ok := s.Approve("inv-1", "Mike Chen")

	require.True(t, ok)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.Equal(t, domain.StageArchive, got.Stage)
	require.Len(t, got.AuditTrail, 3)
	last := got.AuditTrail[2]
	assert.Equal(t, domain.AuditApproved, last.Action)
	assert.Equal(t, "Mike Chen", last.User)
	assert.Equal(t, "Invoice approved for payment", last.Details)
	assert.Equal(t, baseTime, last.Timestamp)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 1, s.Metrics().Approved)
}

func TestReject_KeepsStageRecordsReason(t *testing.T) {
	s, _ := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))

	got, ok := s.Reject("inv-1", "Emily Davis", "Duplicate submission")

	require.True(t, ok)
	assert.Equal(t, domain.StatusRejected, got.Status)
	assert.Equal(t, domain.StageReview, got.Stage)
	last := got.AuditTrail[len(got.AuditTrail)-1]
	assert.Equal(t, domain.AuditRejected, last.Action)
	assert.Equal(t, "Duplicate submission", last.Details)
	assert.Equal(t, 1, s.Metrics().Rejected)
}

func TestApproveThenReject_LastWins(t *testing.T) {
	s, _ := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))

	s.Approve("inv-1", "Mike Chen")
	got, _ := s.Reject("inv-1", "Emily Davis", "Wrong vendor")

	assert.Equal(t, domain.StatusRejected, got.Status)
	require.Len(t, got.AuditTrail, 4)
	assert.Equal(t, domain.AuditApproved, got.AuditTrail[2].Action)
	assert.Equal(t, domain.AuditRejected, got.AuditTrail[3].Action)

	got, _ = s.Approve("inv-1", "Mike Chen")
	assert.Equal(t, domain.StatusApproved, got.Status)
	require.Len(t, got.AuditTrail, 5)
	assert.Equal(t, domain.AuditApproved, got.AuditTrail[4].Action)
}

func TestMutations_UnknownIDAreNoOps(t *testing.T) {
	s, rec := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))
	before := s.List()

	_, ok := s.Approve("missing", "u")
	assert.False(t, ok)
	_, ok = s.Reject("missing", "u", "r")
	assert.False(t, ok)
	_, ok = s.Flag("missing", "u", "r")
	assert.False(t, ok)
	_, ok = s.EditField("missing", "Invoice Number", "x", "u")
	assert.False(t, ok)
	_, ok = s.Update("missing", domain.InvoiceUpdate{})
	assert.False(t, ok)
	assert.False(t, s.Delete("missing"))

	assert.Equal(t, before, s.List())
	assert.Equal(t, 0, rec.calls)
}

func TestBulkApprove_IgnoresUnknownRecomputesOnce(t *testing.T) {
	s, rec := newTestStore(t,
		newInvoice("inv-1", 70, domain.StatusReview),
		newInvoice("inv-2", 65, domain.StatusReview),
	)

	approved := s.BulkApprove([]string{"inv-1", "does-not-exist"}, "Alex Wilson")

	assert.Equal(t, []string{"inv-1"}, approved)
	assert.Equal(t, 1, rec.calls)

	one, _ := s.Get("inv-1")
	assert.Equal(t, domain.StatusApproved, one.Status)
	assert.Equal(t, domain.StageArchive, one.Stage)
	assert.Equal(t, "Bulk approved", one.AuditTrail[len(one.AuditTrail)-1].Details)

	two, _ := s.Get("inv-2")
	assert.Equal(t, domain.StatusReview, two.Status)
	assert.Len(t, two.AuditTrail, 2)
}

func TestEditField_OriginalValueSetOnce(t *testing.T) {
	s, rec := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))

	got, ok := s.EditField("inv-1", "Invoice Number", "INV-002", "Sarah Johnson")
	require.True(t, ok)
	field, _ := got.Field("Invoice Number")
	assert.Equal(t, "INV-002", field.Value)
	assert.True(t, field.IsEdited)
	require.NotNil(t, field.OriginalValue)
	assert.Equal(t, "INV-001", *field.OriginalValue)

	got, _ = s.EditField("inv-1", "Invoice Number", "INV-003", "Sarah Johnson")
	field, _ = got.Field("Invoice Number")
	assert.Equal(t, "INV-003", field.Value)
	assert.Equal(t, "INV-001", *field.OriginalValue)

	require.Len(t, got.AuditTrail, 4)
	edit := got.AuditTrail[3]
	assert.Equal(t, domain.AuditEdited, edit.Action)
	assert.Equal(t, []domain.FieldChange{{Field: "Invoice Number", From: "INV-002", To: "INV-003"}}, edit.Changes)

	assert.Equal(t, 70.0, got.OverallConfidence)
	assert.Equal(t, 0, rec.calls)
}

func TestEditField_UnknownFieldIsNoOp(t *testing.T) {
	s, _ := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))

	_, ok := s.EditField("inv-1", "PO Number", "PO-1", "u")

	assert.False(t, ok)
	got, _ := s.Get("inv-1")
	assert.Len(t, got.AuditTrail, 2)
}

func TestFlag_AppendsWithoutStatusChange(t *testing.T) {
	s, _ := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))

	got, ok := s.Flag("inv-1", "Mike Chen", "Amount looks off")

	require.True(t, ok)
	assert.Equal(t, domain.StatusReview, got.Status)
	assert.Equal(t, domain.AuditFlagged, got.AuditTrail[2].Action)
}

func TestUpdate_ShallowMerge(t *testing.T) {
	s, rec := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))
	vendor := "TechSupply Inc"
	assignee := "Emily Davis"

	got, ok := s.Update("inv-1", domain.InvoiceUpdate{Vendor: &vendor, AssignedTo: &assignee})

	require.True(t, ok)
	assert.Equal(t, "TechSupply Inc", got.Vendor)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "Emily Davis", *got.AssignedTo)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, domain.PriorityMedium, got.Priority)
	assert.Equal(t, 1, rec.calls)
}

func TestDelete_RemovesAndReindexes(t *testing.T) {
	s, rec := newTestStore(t,
		newInvoice("inv-1", 70, domain.StatusReview),
		newInvoice("inv-2", 90, domain.StatusApproved),
		newInvoice("inv-3", 50, domain.StatusReview),
	)

	assert.True(t, s.Delete("inv-1"))

	assert.Equal(t, []string{"inv-2", "inv-3"}, ids(s.List()))
	got, ok := s.Approve("inv-3", "u")
	require.True(t, ok)
	assert.Equal(t, "inv-3", got.ID)
	assert.Equal(t, 2, rec.calls)
	assert.Equal(t, 2, s.Metrics().TotalInvoices)
}

func TestReviewQueue_Ordering(t *testing.T) {
	a := withSLA(newInvoice("A", 50, domain.StatusReview), domain.PriorityHigh, time.Hour)
	b := withSLA(newInvoice("B", 50, domain.StatusReview), domain.PriorityHigh, 5*time.Hour)
	c := withSLA(newInvoice("C", 70, domain.StatusReview), domain.PriorityMedium, time.Hour)
	s, _ := newTestStore(t, c, b, a)

	assert.Equal(t, []string{"A", "B", "C"}, ids(s.ReviewQueue()))
}

func TestReviewQueue_NoDeadlineSortsLastAndStable(t *testing.T) {
	noDeadline1 := newInvoice("N1", 50, domain.StatusReview)
	noDeadline2 := newInvoice("N2", 50, domain.StatusReview)
	withDeadline := withSLA(newInvoice("D", 50, domain.StatusReview), domain.PriorityHigh, 2*time.Hour)
	low := withSLA(newInvoice("L", 90, domain.StatusReview), domain.PriorityLow, time.Minute)
	approved := newInvoice("X", 40, domain.StatusApproved)
	s, _ := newTestStore(t, noDeadline1, low, approved, noDeadline2, withDeadline)

	assert.Equal(t, []string{"D", "N1", "N2", "L"}, ids(s.ReviewQueue()))
}

func TestByStatus_PreservesOrder(t *testing.T) {
	s, _ := newTestStore(t,
		newInvoice("inv-1", 70, domain.StatusReview),
		newInvoice("inv-2", 90, domain.StatusApproved),
		newInvoice("inv-3", 50, domain.StatusReview),
	)

	assert.Equal(t, []string{"inv-1", "inv-3"}, ids(s.ByStatus(domain.StatusReview)))
	assert.Empty(t, s.ByStatus(domain.StatusArchived))
}

func TestReturnedInvoicesAreCopies(t *testing.T) {
	s, _ := newTestStore(t, newInvoice("inv-1", 70, domain.StatusReview))

	got, _ := s.Get("inv-1")
	got.AuditTrail[0].User = "tampered"
	got.ExtractedFields[0].Value = "tampered"

	again, _ := s.Get("inv-1")
	assert.Equal(t, "Sarah Johnson", again.AuditTrail[0].User)
	assert.Equal(t, "INV-001", again.ExtractedFields[0].Value)
}

func TestThresholds(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, domain.DefaultThresholds(), s.Thresholds())

	require.NoError(t, s.SetThresholds(domain.ConfidenceThresholds{AutoApprove: 90, Review: 70}))
	assert.Equal(t, 90.0, s.Thresholds().AutoApprove)

	err := s.SetThresholds(domain.ConfidenceThresholds{AutoApprove: 50, Review: 70})
	assert.ErrorIs(t, err, domain.ErrInvalidThresholds)
	assert.Equal(t, 90.0, s.Thresholds().AutoApprove)
}
