package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/dairychain/milkops/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Arial"}
}

func (g *Generator) Generate(statement model.PaymentStatement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Collector payment statement", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Statement for %s", statement.CollectorName), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period %s to %s",
		formatDate(statement.Payment.PeriodStart),
		formatDate(statement.Payment.PeriodEnd),
	), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Collections", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	headers := []string{"Collections", "Liters", "Rate per liter", "Gross earnings"}
	colWidths := []float64{45, 45, 45, 45}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	row := []string{
		fmt.Sprintf("%d", statement.Payment.TotalCollections),
		formatAmount(statement.Payment.TotalLiters),
		formatAmount(statement.Payment.RatePerLiter),
		formatAmount(statement.Payment.TotalEarnings),
	}
	drawTableRow(pdf, g.fontName, row, colWidths, false)

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Net payment", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Gross earnings: %s", formatAmount(statement.Net.GrossEarnings)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Credit used: -%s", formatAmount(statement.Net.CreditUsed)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Collector fee: -%s", formatAmount(statement.Net.CollectorFee)), "", 1, "L", false, 0, "")

	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Net payable: %s", formatAmount(statement.Net.Net)), "", 1, "L", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.Ln(4)
	status := fmt.Sprintf("Status: %s", statement.Payment.Status)
	if statement.Payment.PaidAt != nil {
		status = fmt.Sprintf("%s (paid at %s)", status, statement.Payment.PaidAt.Format("2006-01-02 15:04"))
	}
	pdf.CellFormat(0, 6, status, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "R"
		if header {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
