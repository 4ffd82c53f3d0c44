package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicedash/internal/domain"
)

func inv(id string, confidence float64, status domain.InvoiceStatus) domain.Invoice {
	return domain.Invoice{
		ID:                id,
		Vendor:            "Acme Corp",
		Status:            status,
		OverallConfidence: confidence,
	}
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(nil)

	assert.Equal(t, 0, m.TotalInvoices)
	assert.Equal(t, 0.0, m.AverageConfidence)
	assert.Equal(t, 0.0, m.AutoApprovalRate)
	assert.Equal(t, 0, m.ProcessedToday)
	assert.Equal(t, 0, m.ManualTimeSavedMinutes)
	assert.Equal(t, 0.0, m.EstimatedCostSavings)
	assert.Equal(t, 340.0, m.ProductivityImprovement)
}

func TestComputeMetrics_MixedCollection(t *testing.T) {
	invoices := []domain.Invoice{
		inv("a", 90, domain.StatusApproved),
		inv("b", 50, domain.StatusReview),
		inv("c", 85, domain.StatusApproved),
	}

	m := ComputeMetrics(invoices)

	assert.Equal(t, 3, m.TotalInvoices)
	assert.Equal(t, 1, m.PendingReview)
	assert.Equal(t, 2, m.Approved)
	assert.Equal(t, 0, m.Rejected)
	assert.InDelta(t, 75.0, m.AverageConfidence, 0.001)
	assert.InDelta(t, 66.67, m.AutoApprovalRate, 0.01)
	assert.Equal(t, 36, m.ManualTimeSavedMinutes)
	assert.Equal(t, 135.0, m.EstimatedCostSavings)
	assert.Equal(t, 1, m.ProcessedToday)
}

func TestComputeMetrics_ApprovedBelowAutoThresholdNotCounted(t *testing.T) {
	invoices := []domain.Invoice{
		inv("a", 84.9, domain.StatusApproved),
		inv("b", 95, domain.StatusRejected),
	}

	m := ComputeMetrics(invoices)

	assert.Equal(t, 0.0, m.AutoApprovalRate)
	assert.Equal(t, 1, m.Rejected)
	assert.Equal(t, 1, m.Approved)
}

func TestComputeMetrics_Deterministic(t *testing.T) {
	invoices := []domain.Invoice{
		inv("a", 72.5, domain.StatusReview),
		inv("b", 91, domain.StatusApproved),
	}
	assert.Equal(t, ComputeMetrics(invoices), ComputeMetrics(invoices))
}

func TestComputeAnalytics(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	invoices := []domain.Invoice{
		{ID: "a", Vendor: "Acme Corp", TotalAmount: 100, OverallConfidence: 95, Status: domain.StatusApproved, UploadedAt: now},
		{ID: "b", Vendor: "Acme Corp", TotalAmount: 50, OverallConfidence: 55, Status: domain.StatusReview, UploadedAt: now.Add(-24 * time.Hour)},
		{ID: "c", Vendor: "DataPro Systems", TotalAmount: 10, OverallConfidence: 82, Status: domain.StatusApproved, UploadedAt: now.Add(-48 * time.Hour)},
		{ID: "d", Vendor: "DataPro Systems", TotalAmount: 10, OverallConfidence: 70, Status: domain.StatusReview, UploadedAt: now.Add(-30 * 24 * time.Hour)},
		{ID: "e", Vendor: "Global Logistics", TotalAmount: 5, OverallConfidence: 60, Status: domain.StatusReview, UploadedAt: now},
	}

	a := ComputeAnalytics(invoices, now, 3)

	require.Len(t, a.DailyProcessed, 3)
	assert.Equal(t, "2025-03-08", a.DailyProcessed[0].Date)
	assert.Equal(t, 1, a.DailyProcessed[0].Count)
	assert.Equal(t, 1, a.DailyProcessed[0].Manual)
	assert.Equal(t, "2025-03-10", a.DailyProcessed[2].Date)
	assert.Equal(t, 2, a.DailyProcessed[2].Count)
	assert.Equal(t, 1, a.DailyProcessed[2].Automated)

	require.Len(t, a.VendorBreakdown, 3)
	assert.Equal(t, "Acme Corp", a.VendorBreakdown[0].Vendor)
	assert.Equal(t, 150.0, a.VendorBreakdown[0].TotalAmount)
	assert.Equal(t, "DataPro Systems", a.VendorBreakdown[1].Vendor)
	assert.Equal(t, "Global Logistics", a.VendorBreakdown[2].Vendor)

	counts := map[string]int{}
	for _, b := range a.ConfidenceDistribution {
		counts[b.Range] = b.Count
	}
	assert.Equal(t, map[string]int{"90-100%": 1, "80-90%": 1, "70-80%": 1, "60-70%": 1, "<60%": 1}, counts)

	assert.Equal(t, []domain.DailySavings{
		{Date: "2025-03-08", TimeSavedMinutes: 12, CostSaved: 45},
		{Date: "2025-03-09", TimeSavedMinutes: 12, CostSaved: 45},
		{Date: "2025-03-10", TimeSavedMinutes: 24, CostSaved: 90},
	}, a.SavingsOverTime)
}

func TestComputeAnalytics_ClampsDays(t *testing.T) {
	a := ComputeAnalytics(nil, time.Now(), 0)
	assert.Len(t, a.DailyProcessed, 1)
	assert.Empty(t, a.VendorBreakdown)
}
