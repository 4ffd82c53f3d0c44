package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"invoicedash/internal/domain"
)

// BatchResult is the JSON document produced by a batch export.
type BatchResult struct {
	Exported  int                 `json:"exported"`
	Format    domain.ExportFormat `json:"format"`
	Timestamp time.Time           `json:"timestamp"`
	Invoices  []domain.Invoice    `json:"invoices"`
}

// Batch renders several invoices in the given format.
func Batch(format domain.ExportFormat, invoices []domain.Invoice, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case domain.ExportJSON:
		err = json.NewEncoder(&buf).Encode(BatchResult{
			Exported:  len(invoices),
			Format:    format,
			Timestamp: now.UTC(),
			Invoices:  invoices,
		})
	case domain.ExportCSV:
		w := NewWriter(&buf)
		if err = w.WriteInvoices(invoices); err == nil {
			w.Flush()
			err = w.Error()
		}
	case domain.ExportXLSX:
		err = WriteWorkbook(&buf, invoices)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Writer wraps csv.Writer for batch invoice rows: invoice_id,vendor,amount,date.
// No header row is written.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteInvoices writes one row per invoice.
func (w *Writer) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		inv := &invoices[i]
		if err := w.csv.Write([]string{inv.ID, inv.Vendor, formatMoney(inv.TotalAmount), inv.InvoiceDate}); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

const sheetName = "Invoices"

var workbookColumns = []string{
	"Invoice ID",
	"File Name",
	"Vendor",
	"Invoice Number",
	"Invoice Date",
	"Due Date",
	"Total Amount",
	"Currency",
	"Status",
	"Priority",
	"Confidence",
	"Uploaded At",
}

// WriteWorkbook writes an XLSX workbook with a header row and one row per invoice.
func WriteWorkbook(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(workbookColumns))
	for i, c := range workbookColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for i := range invoices {
		inv := &invoices[i]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			inv.ID,
			inv.FileName,
			inv.Vendor,
			inv.InvoiceNumber,
			inv.InvoiceDate,
			inv.DueDate,
			inv.TotalAmount,
			inv.Currency,
			string(inv.Status),
			string(inv.Priority),
			roundTo(inv.OverallConfidence, 2),
			inv.UploadedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func roundTo(v float64, places int) float64 {
	p, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return p
}
