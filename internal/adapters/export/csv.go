package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the sheet as RFC 4180 CSV with a header line.
func WriteCSV(w io.Writer, s Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header); err != nil {
		return fmt.Errorf("%w: csv header: %w", ErrWrite, err)
	}
	record := make([]string, 0, len(s.Header))
	for _, row := range s.Rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, formatCell(cell))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("%w: csv row: %w", ErrWrite, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: csv flush: %w", ErrWrite, err)
	}
	return nil
}
