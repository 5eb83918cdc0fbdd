package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

var excelHeaders = []string{
	"Order ID",
	"Order Code",
	"Customer Name",
	"Customer Email",
	"Order Date",
	"Payment Date",
	"Payment Method",
	"Status",
	"Items (Qty)",
	"Items Total",
	"Order Total",
}

// 1シート、1行=1注文、最後にサマリ行。
func RenderXLSX(rep *Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for col, h := range excelHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, row := range rep.Rows {
		values := []interface{}{
			row.OrderID,
			row.OrderCode,
			row.CustomerName,
			row.CustomerEmail,
			row.OrderedAt.Format("02 Jan 2006 15:04"),
			formatDate(row.PaidAt),
			TitleizeStatus(row.PaymentMethod),
			TitleizeStatus(row.Status),
			row.ItemsSummary,
			row.ItemsTotal,
			row.OrderTotal,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	//サマリ行（総売上と販売数）
	summaryRow := len(rep.Rows) + 2
	summary := map[int]interface{}{
		1:  "GRAND TOTAL",
		9:  fmt.Sprintf("%d units", rep.TotalUnits()),
		11: rep.GrandTotal(),
	}
	for col, v := range summary {
		cell, err := excelize.CoordinatesToCellName(col, summaryRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(sheet, "A", "K", 22); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
