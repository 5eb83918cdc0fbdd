package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func reportTestUsecase(orders *OrderRepoMock, items *OrderItemRepoMock, users *OrderUserRepoMock) *usecase.ReportUsecase {
	return usecase.NewReportUsecase(orders, items, users, zap.NewNop())
}

func TestGenerateSalesReport_InvalidDate(t *testing.T) {
	uc := reportTestUsecase(new(OrderRepoMock), new(OrderItemRepoMock), new(OrderUserRepoMock))

	out, err := uc.GenerateSalesReport(context.Background(), usecase.SalesReportInput{
		StartDate: "2025/06/01",
		Format:    "pdf",
	})
	assert.Nil(t, out)
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestGenerateSalesReport_StartAfterEnd(t *testing.T) {
	uc := reportTestUsecase(new(OrderRepoMock), new(OrderItemRepoMock), new(OrderUserRepoMock))

	out, err := uc.GenerateSalesReport(context.Background(), usecase.SalesReportInput{
		StartDate: "2025-06-30",
		EndDate:   "2025-06-01",
		Format:    "pdf",
	})
	assert.Nil(t, out)
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestGenerateSalesReport_UnknownFormat(t *testing.T) {
	uc := reportTestUsecase(new(OrderRepoMock), new(OrderItemRepoMock), new(OrderUserRepoMock))

	out, err := uc.GenerateSalesReport(context.Background(), usecase.SalesReportInput{Format: "csv"})
	assert.Nil(t, out)
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

// 期間内に支払済み注文が無ければ404
func TestGenerateSalesReport_Empty(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("ListPaidBetween", mock.Anything, mock.Anything, mock.Anything).Return([]model.Order{}, nil)

	uc := reportTestUsecase(orders, new(OrderItemRepoMock), new(OrderUserRepoMock))

	out, err := uc.GenerateSalesReport(context.Background(), usecase.SalesReportInput{
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
		Format:    "pdf",
	})
	assert.Nil(t, out)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestGenerateSalesReport_PDF(t *testing.T) {
	paid := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

	orders := new(OrderRepoMock)
	orders.On("ListPaidBetween", mock.Anything, mock.Anything, mock.Anything).Return([]model.Order{
		{ID: 1, UserID: 3, OrderCode: "ORD-a", Total: 4600, Status: model.OrderStatusPaid,
			PaymentMethod: model.PaymentMethodMidtrans, PaymentDate: &paid},
	}, nil)

	items := new(OrderItemRepoMock)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{OrderID: 1, ProductID: 100, ProductNameSnapshot: "widget", Price: 500, Quantity: 2},
		{OrderID: 1, ProductID: 200, ProductNameSnapshot: "gadget", Price: 1200, Quantity: 3},
	}, nil)

	users := new(OrderUserRepoMock)
	users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, Name: "buyer", Email: "b@example.com"}, nil)

	uc := reportTestUsecase(orders, items, users)

	out, err := uc.GenerateSalesReport(context.Background(), usecase.SalesReportInput{
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
		Format:    "pdf",
	})
	assert.NoError(t, err)
	if assert.NotNil(t, out) {
		assert.Equal(t, "sales-report-20250601-20250630.pdf", out.Filename)
		assert.Equal(t, "application/pdf", out.ContentType)
		assert.NotEmpty(t, out.Content)
	}
}

func TestGenerateSalesReport_Excel(t *testing.T) {
	paid := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)

	orders := new(OrderRepoMock)
	orders.On("ListPaidBetween", mock.Anything, mock.Anything, mock.Anything).Return([]model.Order{
		{ID: 1, UserID: 3, OrderCode: "ORD-a", Total: 4600, Status: model.OrderStatusPaid,
			PaymentMethod: model.PaymentMethodBankTransfer, PaymentDate: &paid},
	}, nil)

	items := new(OrderItemRepoMock)
	items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{OrderID: 1, ProductID: 100, ProductNameSnapshot: "widget", Price: 4600, Quantity: 1},
	}, nil)

	users := new(OrderUserRepoMock)
	users.On("FindByID", mock.Anything, int64(3)).Return(&model.User{ID: 3, Name: "buyer"}, nil)

	uc := reportTestUsecase(orders, items, users)

	//excelはxlsxの別名
	out, err := uc.GenerateSalesReport(context.Background(), usecase.SalesReportInput{
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
		Format:    "excel",
	})
	assert.NoError(t, err)
	if assert.NotNil(t, out) {
		assert.Equal(t, "sales-report-20250601-20250630.xlsx", out.Filename)
		assert.Contains(t, out.ContentType, "spreadsheetml")
	}
}
