package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ExportCSV writes the records as CSV in the schema's export column
// order, header row first. encoding/csv handles quoting, so embedded
// commas and quotes survive the round trip.
func ExportCSV[T Record](w io.Writer, records []T, sc Schema) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(sc.ExportHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	row := make([]string, len(sc.ExportHeader))
	for _, r := range records {
		for i, f := range sc.ExportHeader {
			v, _ := r.Field(f)
			row[i] = v
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
