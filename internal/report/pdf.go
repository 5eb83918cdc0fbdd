package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// 売上レポートをA4横のテーブルとして描画する。
func RenderPDF(rep *Report) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Sales Report", false)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8,
			fmt.Sprintf("Generated at %s - Page %d of {nb}",
				rep.GeneratedAt.Format("02 Jan 2006 15:04"), pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 9, "SALES REPORT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, rep.Subtitle(), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	//列幅（合計 = A4横の有効幅277mm）
	widths := []float64{14, 34, 44, 28, 28, 26, 73, 30}
	headers := []string{"ID", "Customer", "Email", "Paid At", "Method", "Status", "Items", "Total"}

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(242, 247, 252)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
	drawHeader()

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rep.Rows {
		//ページ跨ぎではヘッダを書き直す
		if pdf.GetY() > 180 {
			pdf.AddPage()
			drawHeader()
			pdf.SetFont("Helvetica", "", 8)
		}

		cells := []string{
			fmt.Sprintf("#%d", row.OrderID),
			row.CustomerName,
			row.CustomerEmail,
			formatDate(row.PaidAt),
			TitleizeStatus(row.PaymentMethod),
			TitleizeStatus(row.Status),
			row.ItemsSummary,
			formatAmount(row.OrderTotal),
		}
		aligns := []string{"C", "L", "L", "C", "L", "L", "L", "R"}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}

	//合計行
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(232, 240, 247)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4]+widths[5], 7,
		"GRAND TOTAL", "1", 0, "R", true, 0, "")
	pdf.CellFormat(widths[6], 7, fmt.Sprintf("%d units", rep.TotalUnits()), "1", 0, "C", true, 0, "")
	pdf.CellFormat(widths[7], 7, formatAmount(rep.GrandTotal()), "1", 1, "R", true, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Paid orders: %d", len(rep.Rows)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatAmount(v int64) string {
	return fmt.Sprintf("Rp %d", v)
}
