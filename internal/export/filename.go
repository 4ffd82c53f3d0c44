package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"invoicedash/internal/domain"
)

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// InvoiceFilename names a single-invoice export: invoice_{number}.{ext}.
func InvoiceFilename(inv *domain.Invoice, format domain.ExportFormat) string {
	name := SanitizeFilename(inv.InvoiceNumber)
	if name == "" {
		name = SanitizeFilename(inv.ID)
	}
	return fmt.Sprintf("invoice_%s.%s", name, format)
}

// BatchFilename names a batch export: invoices_{YYYY-MM-DD}.{ext}.
func BatchFilename(format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("invoices_%s.%s", now.Format("2006-01-02"), format)
}

// ContentType returns the MIME type for an export format.
func ContentType(format domain.ExportFormat) string {
	switch format {
	case domain.ExportJSON:
		return "application/json"
	case domain.ExportCSV:
		return "text/csv; charset=utf-8"
	case domain.ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
