package dashboard

import (
	"math"
	"sort"
	"time"

	"invoicedash/internal/domain"
)

const dateLayout = "2006-01-02"

// confidenceRanges are ordered from the highest band down. An invoice falls
// into the first band whose lower bound it meets.
var confidenceRanges = []struct {
	label string
	min   float64
}{
	{"90-100%", 90},
	{"80-90%", 80},
	{"70-80%", 70},
	{"60-70%", 60},
	{"<60%", math.Inf(-1)},
}

// ComputeAnalytics builds the analytics breakdowns for the days ending at now.
// days < 1 is treated as 1.
func ComputeAnalytics(invoices []domain.Invoice, now time.Time, days int) domain.Analytics {
	if days < 1 {
		days = 1
	}
	daily := dailyProcessed(invoices, now, days)
	return domain.Analytics{
		DailyProcessed:         daily,
		VendorBreakdown:        vendorBreakdown(invoices),
		ConfidenceDistribution: confidenceDistribution(invoices),
		SavingsOverTime:        savingsOverTime(daily),
	}
}

// savingsOverTime applies the per-invoice savings of ComputeMetrics to each day.
func savingsOverTime(daily []domain.DailyProcessed) []domain.DailySavings {
	out := make([]domain.DailySavings, len(daily))
	for i, d := range daily {
		out[i] = domain.DailySavings{
			Date:             d.Date,
			TimeSavedMinutes: d.Count * minutesSavedPerInvoice,
			CostSaved:        float64(d.Count) * costSavedPerInvoice,
		}
	}
	return out
}

func dailyProcessed(invoices []domain.Invoice, now time.Time, days int) []domain.DailyProcessed {
	today := now.UTC().Truncate(24 * time.Hour)
	out := make([]domain.DailyProcessed, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i-days+1).Format(dateLayout)
		out[i] = domain.DailyProcessed{Date: date}
		index[date] = i
	}

	for i := range invoices {
		inv := &invoices[i]
		pos, ok := index[inv.UploadedAt.UTC().Format(dateLayout)]
		if !ok {
			continue
		}
		out[pos].Count++
		if isAutoApproved(inv) {
			out[pos].Automated++
		} else {
			out[pos].Manual++
		}
	}
	return out
}

func vendorBreakdown(invoices []domain.Invoice) []domain.VendorBreakdown {
	byVendor := make(map[string]*domain.VendorBreakdown)
	var order []string
	for i := range invoices {
		inv := &invoices[i]
		vb, ok := byVendor[inv.Vendor]
		if !ok {
			vb = &domain.VendorBreakdown{Vendor: inv.Vendor}
			byVendor[inv.Vendor] = vb
			order = append(order, inv.Vendor)
		}
		vb.Count++
		vb.TotalAmount += inv.TotalAmount
	}

	out := make([]domain.VendorBreakdown, 0, len(order))
	for _, v := range order {
		out = append(out, *byVendor[v])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

func confidenceDistribution(invoices []domain.Invoice) []domain.ConfidenceBucket {
	out := make([]domain.ConfidenceBucket, len(confidenceRanges))
	for i, r := range confidenceRanges {
		out[i].Range = r.label
	}
	for i := range invoices {
		c := invoices[i].OverallConfidence
		for j, r := range confidenceRanges {
			if c >= r.min {
				out[j].Count++
				break
			}
		}
	}
	return out
}

func isAutoApproved(inv *domain.Invoice) bool {
	return inv.Status == domain.StatusApproved && inv.OverallConfidence >= AutoApprovalConfidence
}
