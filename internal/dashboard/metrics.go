// Package dashboard derives dashboard statistics from an invoice collection.
// Everything here is a pure function of its input.
package dashboard

import (
	"math"

	"invoicedash/internal/domain"
)

const (
	// AutoApprovalConfidence is the confidence at or above which an approved
	// invoice counts as auto-approved.
	AutoApprovalConfidence = 85.0

	minutesSavedPerInvoice = 12
	costSavedPerInvoice    = 45.0

	// productivityImprovement and processedTodayRatio are business placeholders,
	// not derived from invoice data.
	productivityImprovement = 340.0
	processedTodayRatio     = 0.4
)

// ComputeMetrics recomputes the full set of dashboard metrics from invoices.
func ComputeMetrics(invoices []domain.Invoice) domain.DashboardMetrics {
	total := len(invoices)
	m := domain.DashboardMetrics{
		TotalInvoices:           total,
		ProcessedToday:          int(math.Floor(float64(total) * processedTodayRatio)),
		ManualTimeSavedMinutes:  total * minutesSavedPerInvoice,
		EstimatedCostSavings:    float64(total) * costSavedPerInvoice,
		ProductivityImprovement: productivityImprovement,
	}
	if total == 0 {
		return m
	}

	var confidenceSum float64
	autoApproved := 0
	for i := range invoices {
		inv := &invoices[i]
		confidenceSum += inv.OverallConfidence
		switch inv.Status {
		case domain.StatusReview:
			m.PendingReview++
		case domain.StatusApproved:
			m.Approved++
			if isAutoApproved(inv) {
				autoApproved++
			}
		case domain.StatusRejected:
			m.Rejected++
		}
	}

	m.AverageConfidence = confidenceSum / float64(total)
	m.AutoApprovalRate = float64(autoApproved) / float64(total) * 100
	return m
}
