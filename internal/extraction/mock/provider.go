// Package mock implements a randomized extraction provider that stands in for
// a real document understanding service.
package mock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"invoicedash/internal/domain"
	"invoicedash/internal/port"
)

var errSimulatedOutage = errors.New("simulated provider outage")

// Options configures the mock provider.
type Options struct {
	UploadLatency   time.Duration
	ExtractLatency  time.Duration
	ValidateLatency time.Duration
	// FailureRate is the probability in [0,1] that a call fails with a
	// temporary NetworkError.
	FailureRate float64
	// Seed makes the generated data reproducible. Zero seeds from the clock.
	Seed int64
	Now  func() time.Time
}

// Provider is a port.ExtractionProvider returning randomized invoice data.
// It is safe for concurrent use.
type Provider struct {
	opts Options
	seq  atomic.Int64

	mu  sync.Mutex
	rng *rand.Rand
}

var _ port.ExtractionProvider = (*Provider)(nil)

// NewProvider creates a mock provider.
func NewProvider(opts Options) *Provider {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	seed := uint64(opts.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Provider{
		opts: opts,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Upload accepts a document and assigns it an invoice id.
func (p *Provider) Upload(ctx context.Context, doc port.Document) (*port.UploadResult, error) {
	if err := p.simulate(ctx, "upload", p.opts.UploadLatency); err != nil {
		return nil, err
	}
	return &port.UploadResult{
		InvoiceID:        fmt.Sprintf("inv-%d-%d", p.opts.Now().UnixMilli(), p.seq.Add(1)),
		ProcessingTimeMs: p.float()*2000 + 500,
	}, nil
}

// Extract returns randomized fields for a previously uploaded document.
func (p *Provider) Extract(ctx context.Context, invoiceID, fileName string) (*port.ExtractionResult, error) {
	if err := p.simulate(ctx, "extract", p.opts.ExtractLatency); err != nil {
		return nil, err
	}

	fields := p.extractedFields(fileName)
	var sum float64
	for _, f := range fields {
		sum += f.Confidence
	}

	return &port.ExtractionResult{
		Fields:            fields,
		OverallConfidence: sum / float64(len(fields)),
		LineItems:         p.lineItems(p.intn(4)+2, 500, 50, serviceDescriptions),
	}, nil
}

// Validate returns a randomized validation outcome.
func (p *Provider) Validate(ctx context.Context, invoiceID string) (*domain.ValidationResult, error) {
	if err := p.simulate(ctx, "validate", p.opts.ValidateLatency); err != nil {
		return nil, err
	}

	hasErrors := p.float() > 0.8
	hasWarnings := p.float() > 0.5
	res := &domain.ValidationResult{IsValid: !hasErrors, Errors: []string{}, Warnings: []string{}}
	if hasErrors {
		res.Errors = []string{"Duplicate invoice number detected", "Vendor not in approved list"}
	}
	if hasWarnings {
		res.Warnings = []string{"Total amount exceeds typical range for this vendor", "Due date is earlier than usual"}
	}
	return res, nil
}

var serviceDescriptions = []string{
	"Professional Services",
	"Software License",
	"Consulting Hours",
	"Hardware Equipment",
	"Support & Maintenance",
	"Training Session",
}

func (p *Provider) extractedFields(fileName string) []domain.ExtractedField {
	base := p.float()*30 + 65
	now := p.opts.Now()

	vendor := strings.Split(fileName, "_")[0]
	if vendor == "" {
		vendor = "Unknown Vendor"
	}

	pick := func(cond bool, a, b string) string {
		if cond {
			return a
		}
		return b
	}

	return []domain.ExtractedField{
		{
			Key:         "Invoice Number",
			Value:       fmt.Sprintf("INV-%06d", now.UnixMilli()%1000000),
			Confidence:  clamp(math.Min(98, base+p.float()*10)),
			Explanation: pick(base > 80, "Clear alphanumeric pattern detected with high accuracy.", "Invoice number format slightly unusual, manual verification recommended."),
			BoundingBox: &domain.BoundingBox{X: 65, Y: 12, Width: 20, Height: 3},
		},
		{
			Key:         "Vendor Name",
			Value:       vendor,
			Confidence:  clamp(math.Min(99, base+p.float()*8)),
			Explanation: "Vendor name extracted from header section.",
			BoundingBox: &domain.BoundingBox{X: 10, Y: 8, Width: 35, Height: 4},
		},
		{
			Key:         "Invoice Date",
			Value:       now.Format("2006-01-02"),
			Confidence:  clamp(base + p.float()*5 - 5),
			Explanation: pick(base > 75, "Date format recognized and validated.", "Date detected in words instead of numeric format."),
			BoundingBox: &domain.BoundingBox{X: 65, Y: 16, Width: 18, Height: 3},
		},
		{
			Key:         "Due Date",
			Value:       now.AddDate(0, 0, 30).Format("2006-01-02"),
			Confidence:  clamp(base + p.float()*5 - 5),
			Explanation: "Payment due date calculated from terms.",
			BoundingBox: &domain.BoundingBox{X: 65, Y: 20, Width: 18, Height: 3},
		},
		{
			Key:         "Total Amount",
			Value:       fmt.Sprintf("$%.2f", p.float()*25000+1000),
			Confidence:  clamp(math.Min(97, base+p.float()*6)),
			Explanation: "Total amount extracted from summary section.",
			BoundingBox: &domain.BoundingBox{X: 70, Y: 75, Width: 20, Height: 5},
		},
		{
			Key:         "Tax Amount",
			Value:       fmt.Sprintf("$%.2f", p.float()*2500+100),
			Confidence:  clamp(base + p.float()*8 - 4),
			Explanation: pick(base > 70, "Tax amount clearly identified.", "Multiple tax values detected, using highest confidence match."),
			BoundingBox: &domain.BoundingBox{X: 70, Y: 70, Width: 18, Height: 3},
		},
		{
			Key:         "Subtotal",
			Value:       fmt.Sprintf("$%.2f", p.float()*22000+800),
			Confidence:  clamp(base + p.float()*5),
			Explanation: "Subtotal calculated from line items.",
			BoundingBox: &domain.BoundingBox{X: 70, Y: 65, Width: 18, Height: 3},
		},
		{
			Key:         "Payment Terms",
			Value:       paymentTerms[p.intn(len(paymentTerms))],
			Confidence:  clamp(base + p.float()*10 - 8),
			Explanation: "Payment terms extracted from footer.",
			BoundingBox: &domain.BoundingBox{X: 10, Y: 85, Width: 25, Height: 3},
		},
		{
			Key:         "PO Number",
			Value:       fmt.Sprintf("PO-%d", p.intn(900000)+100000),
			Confidence:  clamp(base + p.float()*5 - 10),
			Explanation: pick(base > 72, "PO reference found and validated.", "Purchase order number partially obscured."),
			BoundingBox: &domain.BoundingBox{X: 10, Y: 25, Width: 20, Height: 3},
		},
		{
			Key:         "Billing Address",
			Value:       "123 Business Park, Suite 400, San Francisco, CA 94105",
			Confidence:  clamp(base + p.float()*5 - 5),
			Explanation: "Address extracted using location pattern matching.",
			BoundingBox: &domain.BoundingBox{X: 10, Y: 35, Width: 40, Height: 8},
		},
	}
}

var paymentTerms = []string{"Net 30", "Net 60", "Due on Receipt"}

func (p *Provider) lineItems(n int, priceSpread, priceFloor float64, descriptions []string) []domain.LineItem {
	items := make([]domain.LineItem, n)
	for i := range items {
		qty := p.intn(10) + 1
		price := p.float()*priceSpread + priceFloor
		items[i] = domain.LineItem{
			Description: descriptions[i%len(descriptions)],
			Quantity:    qty,
			UnitPrice:   price,
			Total:       float64(qty) * price,
		}
	}
	return items
}

// simulate waits for the configured latency and then maybe fails.
func (p *Provider) simulate(ctx context.Context, op string, latency time.Duration) error {
	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &domain.NetworkError{Op: op, Err: ctx.Err()}
		case <-timer.C:
		}
	}
	if p.opts.FailureRate > 0 && p.float() < p.opts.FailureRate {
		return &domain.NetworkError{Op: op, Err: errSimulatedOutage, Temporary: true}
	}
	return nil
}

func (p *Provider) float() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *Provider) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

func clamp(c float64) float64 {
	return math.Max(0, math.Min(100, c))
}
