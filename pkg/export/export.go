// Package export writes prediction log entries as JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/deliveryeta/core/model"
	"github.com/kilianp07/deliveryeta/core/predictionlog"
)

// WriteJSON writes entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []predictionlog.Entry) error {
	if entries == nil {
		entries = []predictionlog.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// CSVHeader lists the CSV columns: entry metadata followed by every request field.
var CSVHeader = append([]string{"id", "created_at", "model_version", "predicted_time"}, model.RequestFields...)

// WriteCSV writes one row per entry with the request snapshot flattened
// into columns.
func WriteCSV(w io.Writer, entries []predictionlog.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		var snap map[string]any
		if err := json.Unmarshal(e.RawRequestSnapshot, &snap); err != nil {
			return fmt.Errorf("entry %s: %w", e.ID, err)
		}
		rec := []string{
			e.ID,
			e.CreatedAt.Format(time.RFC3339Nano),
			e.ModelVersion,
			strconv.FormatFloat(e.PredictedTime, 'f', -1, 64),
		}
		for _, f := range model.RequestFields {
			rec = append(rec, cell(snap[f]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
