package report_test

import (
	"testing"
	"time"

	"app/internal/report"

	"github.com/stretchr/testify/assert"
)

func sampleReport() *report.Report {
	paid := time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)
	return &report.Report{
		From:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC),
		GeneratedAt: time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC),
		Rows: []report.Row{
			{OrderID: 1, OrderCode: "ORD-a", OrderTotal: 4600, Units: 5, PaidAt: &paid},
			{OrderID: 2, OrderCode: "ORD-b", OrderTotal: 1200, Units: 2, PaidAt: &paid},
		},
	}
}

func TestReportTotals(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, int64(5800), r.GrandTotal())
	assert.Equal(t, int64(7), r.TotalUnits())
}

func TestReportFilename(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, "sales-report-20250601-20250630.pdf", r.Filename("pdf"))
	assert.Equal(t, "sales-report-20250601-20250630.xlsx", r.Filename("xlsx"))
}

func TestSummarizeItems(t *testing.T) {
	summary, units, total := report.SummarizeItems([]report.ItemLine{
		{Name: "widget", Quantity: 2, Price: 500},
		{Name: "gadget", Quantity: 3, Price: 1200},
	})
	assert.Equal(t, "widget (2x); gadget (3x)", summary)
	assert.Equal(t, int64(5), units)
	assert.Equal(t, int64(2*500+3*1200), total)
}

func TestSummarizeItems_Empty(t *testing.T) {
	summary, units, total := report.SummarizeItems(nil)
	assert.Equal(t, "", summary)
	assert.Equal(t, int64(0), units)
	assert.Equal(t, int64(0), total)
}

func TestTitleizeStatus(t *testing.T) {
	assert.Equal(t, "Bank Transfer", report.TitleizeStatus("bank_transfer"))
	assert.Equal(t, "Waiting Confirmation", report.TitleizeStatus("waiting_confirmation"))
	assert.Equal(t, "Paid", report.TitleizeStatus("paid"))
}

// 両レンダラが空でない成果物を返す
func TestRenderers(t *testing.T) {
	r := sampleReport()

	pdf, err := report.RenderPDF(r)
	assert.NoError(t, err)
	assert.NotEmpty(t, pdf)
	//PDFヘッダ
	assert.Equal(t, "%PDF", string(pdf[:4]))

	xlsx, err := report.RenderXLSX(r)
	assert.NoError(t, err)
	assert.NotEmpty(t, xlsx)
	//xlsxはzip
	assert.Equal(t, "PK", string(xlsx[:2]))
}
