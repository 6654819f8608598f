package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dairychain/milkops/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.PaymentsReport) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Payments"
	file.SetSheetName("Sheet1", sheet)
	if err := g.writePayments(file, sheet, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writePayments(file *excelize.File, sheet string, report model.PaymentsReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Collector payments")
	set("A2", "Period start")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Period end")
	set("B3", formatDate(report.PeriodEnd))
	set("A4", "Records")
	set("B4", len(report.Payments))

	tableRow := 6
	headers := []string{
		"Collector",
		"Period start",
		"Period end",
		"Collections",
		"Liters",
		"Rate per liter",
		"Earnings",
		"Status",
		"Paid at",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, row := range report.Payments {
		p := row.Payment
		r := tableRow + 1 + i
		set(fmt.Sprintf("A%d", r), row.CollectorName)
		set(fmt.Sprintf("B%d", r), formatDate(p.PeriodStart))
		set(fmt.Sprintf("C%d", r), formatDate(p.PeriodEnd))
		set(fmt.Sprintf("D%d", r), p.TotalCollections)
		set(fmt.Sprintf("E%d", r), formatFloat(p.TotalLiters))
		set(fmt.Sprintf("F%d", r), formatFloat(p.RatePerLiter))
		set(fmt.Sprintf("G%d", r), formatFloat(p.TotalEarnings))
		set(fmt.Sprintf("H%d", r), string(p.Status))
		set(fmt.Sprintf("I%d", r), formatPaidAt(p.PaidAt))
	}

	_ = file.SetColWidth(sheet, "A", "A", 36)
	_ = file.SetColWidth(sheet, "B", "C", 14)
	_ = file.SetColWidth(sheet, "D", "I", 14)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatPaidAt(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatFloat(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
