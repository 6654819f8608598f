package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/dairychain/milkops/internal/model"
)

// PaymentsCSV serializes a payments report. Column order mirrors the
// spreadsheet export.
func PaymentsCSV(report model.PaymentsReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"collector",
		"period_start",
		"period_end",
		"total_collections",
		"total_liters",
		"rate_per_liter",
		"total_earnings",
		"status",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range report.Payments {
		p := row.Payment
		record := []string{
			row.CollectorName,
			p.PeriodStart.Format("2006-01-02"),
			p.PeriodEnd.Format("2006-01-02"),
			fmt.Sprintf("%d", p.TotalCollections),
			fmt.Sprintf("%.2f", p.TotalLiters),
			fmt.Sprintf("%.2f", p.RatePerLiter),
			fmt.Sprintf("%.2f", p.TotalEarnings),
			string(p.Status),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
