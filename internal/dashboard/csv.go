package dashboard

import (
	"encoding/csv"
	"io"
	"strings"
)

// WriteRowsCSV emits the offenders table as currently displayed.
func WriteRowsCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"IP Address", "Threat Score", "Confidence", "Country", "Tags"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.IP,
			row.Score,
			row.Confidence,
			row.Country,
			strings.Join(row.Tags, ";"),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
