package mock

import (
	"fmt"
	"math"
	"strings"
	"time"

	"invoicedash/internal/domain"
)

var (
	seedVendors = []string{"Acme Corp", "TechSupply Inc", "Office Essentials", "Cloud Services Ltd", "DataPro Systems", "Global Logistics", "Premium Materials Co"}
	seedUsers   = []string{"John Smith", "Sarah Johnson", "Mike Chen", "Emily Davis", "Alex Wilson"}

	mediumConfidenceReasons = []string{
		"Date detected in non-standard format",
		"Partial text obstruction detected",
		"Multiple potential values found",
		"Text quality slightly degraded",
		"Unusual document layout detected",
	}
	lowConfidenceReasons = []string{
		"Low quality scan affecting text recognition",
		"Handwritten annotations detected",
		"Non-standard document format",
		"Multiple languages detected",
		"Significant text overlap or smudging",
	}
)

// SeedInvoices generates n demo invoices spread over the last week. Invoices
// at or above the auto-approve threshold are approved and archived; the rest
// wait in review with an assignee and an SLA deadline 12 to 24 hours out.
func (p *Provider) SeedInvoices(n int, thresholds domain.ConfidenceThresholds, engineName string) []domain.Invoice {
	now := p.opts.Now()
	out := make([]domain.Invoice, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, p.seedInvoice(i, now, thresholds, engineName))
	}
	return out
}

func (p *Provider) seedInvoice(index int, now time.Time, thresholds domain.ConfidenceThresholds, engineName string) domain.Invoice {
	confidence := p.float()*50 + 50
	status, stage := thresholds.Route(confidence)
	vendor := seedVendors[index%len(seedVendors)]
	day := 24 * time.Hour

	fields := []domain.ExtractedField{
		{Key: "Invoice Number", Value: fmt.Sprintf("INV-%d%04d", now.Year(), index+1), Confidence: math.Min(98, confidence+p.float()*10), BoundingBox: &domain.BoundingBox{X: 65, Y: 12, Width: 20, Height: 3}},
		{Key: "Vendor Name", Value: vendor, Confidence: math.Min(99, confidence+p.float()*8), BoundingBox: &domain.BoundingBox{X: 10, Y: 8, Width: 35, Height: 4}},
		{Key: "Invoice Date", Value: now.Add(-p.duration(30 * day)).Format("2006-01-02"), Confidence: confidence + p.float()*5 - 5, BoundingBox: &domain.BoundingBox{X: 65, Y: 16, Width: 18, Height: 3}},
		{Key: "Due Date", Value: now.Add(p.duration(30 * day)).Format("2006-01-02"), Confidence: confidence + p.float()*5 - 5, BoundingBox: &domain.BoundingBox{X: 65, Y: 20, Width: 18, Height: 3}},
		{Key: "Total Amount", Value: fmt.Sprintf("$%.2f", p.float()*50000+500), Confidence: math.Min(97, confidence+p.float()*6), BoundingBox: &domain.BoundingBox{X: 70, Y: 75, Width: 20, Height: 5}},
		{Key: "Tax Amount", Value: fmt.Sprintf("$%.2f", p.float()*5000+50), Confidence: confidence + p.float()*8 - 4, BoundingBox: &domain.BoundingBox{X: 70, Y: 70, Width: 18, Height: 3}},
		{Key: "Subtotal", Value: fmt.Sprintf("$%.2f", p.float()*45000+400), Confidence: confidence + p.float()*5, BoundingBox: &domain.BoundingBox{X: 70, Y: 65, Width: 18, Height: 3}},
		{Key: "Payment Terms", Value: paymentTerms[p.intn(len(paymentTerms))], Confidence: confidence + p.float()*10 - 8, BoundingBox: &domain.BoundingBox{X: 10, Y: 85, Width: 25, Height: 3}},
	}
	for i := range fields {
		fields[i].Confidence = clamp(fields[i].Confidence)
		fields[i].Explanation = p.explain(fields[i].Key, fields[i].Confidence)
	}

	total, _ := domain.ParseAmount(fields[4].Value)
	uploadedAt := now.Add(-p.duration(7 * day))

	inv := domain.Invoice{
		ID:                fmt.Sprintf("inv-%d-%d", now.UnixMilli(), index),
		FileName:          fmt.Sprintf("Invoice_%s_%d.pdf", strings.ReplaceAll(vendor, " ", "_"), index+1),
		UploadedAt:        uploadedAt,
		Status:            status,
		Stage:             stage,
		Vendor:            vendor,
		InvoiceNumber:     fields[0].Value,
		InvoiceDate:       fields[2].Value,
		DueDate:           fields[3].Value,
		TotalAmount:       total,
		Currency:          "USD",
		LineItems:         p.lineItems(p.intn(5)+1, 1000, 100, serviceDescriptions[:5]),
		ExtractedFields:   fields,
		OverallConfidence: confidence,
		ProcessingTimeMs:  p.float()*3000 + 500,
		AuditTrail: []domain.AuditEntry{
			{
				ID:        fmt.Sprintf("audit-1-%d", index),
				Action:    domain.AuditUploaded,
				Timestamp: uploadedAt,
				User:      seedUsers[p.intn(len(seedUsers))],
				Details:   "Document uploaded via drag & drop",
			},
			{
				ID:        fmt.Sprintf("audit-2-%d", index),
				Action:    domain.AuditExtracted,
				Timestamp: uploadedAt.Add(2 * time.Second),
				User:      engineName,
				Details:   fmt.Sprintf("Extracted %d fields with %.1f%% average confidence", len(fields), confidence),
			},
		},
		Priority: domain.PriorityForConfidence(confidence),
	}

	if status != domain.StatusApproved {
		assignee := seedUsers[p.intn(len(seedUsers))]
		deadline := now.Add(24*time.Hour - p.duration(12*time.Hour))
		inv.AssignedTo = &assignee
		inv.SLADeadline = &deadline
	}
	return inv
}

func (p *Provider) explain(field string, confidence float64) string {
	switch {
	case confidence >= 85:
		return fmt.Sprintf("High confidence: Clear text detection with strong pattern matching for %s.", field)
	case confidence >= 60:
		return mediumConfidenceReasons[p.intn(len(mediumConfidenceReasons))]
	default:
		return lowConfidenceReasons[p.intn(len(lowConfidenceReasons))]
	}
}

func (p *Provider) duration(limit time.Duration) time.Duration {
	return time.Duration(p.float() * float64(limit))
}
