// Package export serializes invoices for download.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"invoicedash/internal/domain"
)

// Field is the exported view of an extracted field. Edit bookkeeping
// (is_edited, original_value) and the bounding box are left out.
type Field struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Fields renders one invoice's extracted fields in the given format.
// JSON is a pretty-printed array; CSV is one key,value record per line with
// no header row.
func Fields(format domain.ExportFormat, inv *domain.Invoice) ([]byte, error) {
	switch format {
	case domain.ExportJSON:
		out := make([]Field, len(inv.ExtractedFields))
		for i, f := range inv.ExtractedFields {
			out[i] = Field{Key: f.Key, Value: f.Value, Confidence: f.Confidence, Explanation: f.Explanation}
		}
		return json.MarshalIndent(out, "", "  ")
	case domain.ExportCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		for _, f := range inv.ExtractedFields {
			if err := w.Write([]string{f.Key, f.Value}); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
	default:
		return nil, fmt.Errorf("%w: %q for a single invoice", domain.ErrUnsupportedFormat, format)
	}
}
