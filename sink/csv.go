package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// WriteCSV writes rows with a header of Columns. Missing values are empty
// cells; dates are RFC 3339.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			deref(row.Title),
			deref(row.Company),
			deref(row.Location),
			deref(row.SalaryText),
			"",
			deref(row.Description),
		}
		if row.PublishedAt != nil {
			record[4] = row.PublishedAt.Format(time.RFC3339)
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row.Position, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
