package usecase

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"app/internal/report"
	"app/internal/repository"
)

type SalesReportInput struct {
	//YYYY-MM-DD。空なら1ヶ月前〜今日。
	StartDate string
	EndDate   string
	//pdf / xlsx
	Format string
}

type SalesReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ReportUsecase struct {
	orders repository.OrderRepository
	items  repository.OrderItemRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func NewReportUsecase(
	orders repository.OrderRepository,
	items repository.OrderItemRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *ReportUsecase {
	return &ReportUsecase{
		orders: orders,
		items:  items,
		users:  users,
		logger: logger,
	}
}

// 支払済み注文の売上レポートをPDFかExcelで生成する。
// 期間は支払日（payment_date）で絞る。該当0件は404。
func (u *ReportUsecase) GenerateSalesReport(ctx context.Context, in SalesReportInput) (*SalesReportFile, error) {
	from, to, err := parsePeriod(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	format := in.Format
	switch format {
	case "", "pdf":
		format = "pdf"
	case "xlsx", "excel":
		format = "xlsx"
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "format must be pdf or xlsx")
	}

	orders, err := u.orders.ListPaidBetween(ctx, from, to)
	if err != nil {
		u.logger.Error("list paid orders", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to build report")
	}
	if len(orders) == 0 {
		return nil, NewHTTPError(http.StatusNotFound, "no paid orders in the selected period")
	}

	rep := &report.Report{From: from, To: to, GeneratedAt: time.Now()}
	for _, o := range orders {
		row := report.Row{
			OrderID:       o.ID,
			OrderCode:     o.OrderCode,
			OrderedAt:     o.CreatedAt,
			PaidAt:        o.PaymentDate,
			PaymentMethod: string(o.PaymentMethod),
			Status:        string(o.Status),
			OrderTotal:    o.Total,
		}
		if user, err := u.users.FindByID(ctx, o.UserID); err == nil && user != nil {
			row.CustomerName = user.Name
			row.CustomerEmail = user.Email
		}
		items, err := u.items.ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "failed to build report")
		}
		lines := make([]report.ItemLine, 0, len(items))
		for _, it := range items {
			lines = append(lines, report.ItemLine{
				Name:     it.ProductNameSnapshot,
				Quantity: it.Quantity,
				Price:    it.Price,
			})
		}
		row.ItemsSummary, row.Units, row.ItemsTotal = report.SummarizeItems(lines)
		rep.Rows = append(rep.Rows, row)
	}

	var (
		content     []byte
		contentType string
	)
	switch format {
	case "pdf":
		content, err = report.RenderPDF(rep)
		contentType = "application/pdf"
	case "xlsx":
		content, err = report.RenderXLSX(rep)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		u.logger.Error("render report", zap.String("format", format), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to render report")
	}

	return &SalesReportFile{
		Filename:    rep.Filename(format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// 期間のパース。startは当日0時、endは当日23:59:59に丸める。
func parsePeriod(startDate string, endDate string) (time.Time, time.Time, error) {
	now := time.Now()

	from := now.AddDate(0, -1, 0)
	if startDate != "" {
		t, err := time.ParseInLocation("2006-01-02", startDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		}
		from = t
	}
	to := now
	if endDate != "" {
		t, err := time.ParseInLocation("2006-01-02", endDate, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		}
		to = t
	}

	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, to.Location())

	if from.After(to) {
		return time.Time{}, time.Time{}, NewHTTPError(http.StatusBadRequest, "start_date must not be after end_date")
	}
	return from, to, nil
}
