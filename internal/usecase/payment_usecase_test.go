package usecase_test

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"testing"

	"app/internal/domain/model"
	"app/internal/payment"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func paymentTestUsecase(tx *OrderTxManagerMock, orders *OrderRepoMock, gw *GatewayMock, serverKey string) *usecase.PaymentUsecase {
	return usecase.NewPaymentUsecase(tx, orders, gw, serverKey, zap.NewNop())
}

func settlementNotification(orderCode string, serverKey string) payment.Notification {
	n := payment.Notification{
		OrderID:           orderCode,
		StatusCode:        "200",
		GrossAmount:       "4600.00",
		TransactionStatus: "settlement",
		PaymentType:       "gopay",
		TransactionID:     "trx-123",
	}
	sig := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	n.SignatureKey = hex.EncodeToString(sig[:])
	return n
}

func TestHandleNotification_InvalidSignature(t *testing.T) {
	uc := paymentTestUsecase(&OrderTxManagerMock{}, new(OrderRepoMock), new(GatewayMock), "secret-key")

	n := settlementNotification("ORD-1", "wrong-key")
	err := uc.HandleNotification(context.Background(), n)
	assertHTTPStatus(t, err, http.StatusForbidden)
}

func TestHandleNotification_UnknownOrder(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByOrderCode", mock.Anything, "ORD-missing").Return(model.Order{}, repo.ErrNotFound)

	tx := &OrderTxManagerMock{Repos: &OrderTxReposMock{orders: orders}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	uc := paymentTestUsecase(tx, orders, new(GatewayMock), "secret-key")

	n := settlementNotification("ORD-missing", "secret-key")
	err := uc.HandleNotification(context.Background(), n)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

// settlement通知：CASに勝った1回だけ在庫を引く
func TestHandleNotification_Settlement_DecrementsOnce(t *testing.T) {
	ctx := context.Background()

	orders := new(OrderRepoMock)
	orders.On("FindByOrderCode", mock.Anything, "ORD-1").Return(model.Order{ID: 7, OrderCode: "ORD-1", Status: model.OrderStatusPending}, nil)
	orders.On("UpdateGatewayInfo", mock.Anything, int64(7), "gopay", "trx-123").Return(nil)
	orders.On("UpdateStatusIfIn", mock.Anything, int64(7),
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusWaitingConfirmation},
		model.OrderStatusPaid).Return(true, nil).Once()
	orders.On("UpdatePaymentDate", mock.Anything, int64(7), mock.Anything).Return(nil)

	items := new(OrderItemRepoMock)
	items.On("ListByOrderID", mock.Anything, int64(7)).Return([]model.OrderItem{
		{OrderID: 7, ProductID: 100, Quantity: 2},
		{OrderID: 7, ProductID: 200, Quantity: 3},
	}, nil)

	inventory := new(OrderInventoryRepoMock)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(2)).Return(true, nil)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(200), int64(3)).Return(true, nil)

	tx := &OrderTxManagerMock{Repos: &OrderTxReposMock{
		orders:     orders,
		orderItems: items,
		inventory:  inventory,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	uc := paymentTestUsecase(tx, orders, new(GatewayMock), "secret-key")
	n := settlementNotification("ORD-1", "secret-key")

	//1回目：遷移に勝つ → 在庫減算
	assert.NoError(t, uc.HandleNotification(ctx, n))
	inventory.AssertNumberOfCalls(t, "DecreaseStockIfEnough", 2)

	//2回目（重複配送）：CASに負ける → 在庫は触らない、ゲートウェイ情報は更新される
	orders.On("UpdateStatusIfIn", mock.Anything, int64(7),
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusWaitingConfirmation},
		model.OrderStatusPaid).Return(false, nil)

	assert.NoError(t, uc.HandleNotification(ctx, n))
	inventory.AssertNumberOfCalls(t, "DecreaseStockIfEnough", 2)
	orders.AssertNumberOfCalls(t, "UpdateGatewayInfo", 2)
}

// 在庫が足りなくても決済成立は受理する（在庫はマイナスにしない）
func TestHandleNotification_Settlement_StockShortageStillAccepted(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByOrderCode", mock.Anything, "ORD-6").Return(model.Order{ID: 12, OrderCode: "ORD-6", Status: model.OrderStatusPending}, nil)
	orders.On("UpdateGatewayInfo", mock.Anything, int64(12), "gopay", "trx-123").Return(nil)
	orders.On("UpdateStatusIfIn", mock.Anything, int64(12),
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusWaitingConfirmation},
		model.OrderStatusPaid).Return(true, nil)
	orders.On("UpdatePaymentDate", mock.Anything, int64(12), mock.Anything).Return(nil)

	items := new(OrderItemRepoMock)
	items.On("ListByOrderID", mock.Anything, int64(12)).Return([]model.OrderItem{
		{OrderID: 12, ProductID: 100, Quantity: 5},
	}, nil)

	inventory := new(OrderInventoryRepoMock)
	inventory.On("DecreaseStockIfEnough", mock.Anything, int64(100), int64(5)).Return(false, nil)

	tx := &OrderTxManagerMock{Repos: &OrderTxReposMock{
		orders:     orders,
		orderItems: items,
		inventory:  inventory,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	uc := paymentTestUsecase(tx, orders, new(GatewayMock), "")

	err := uc.HandleNotification(context.Background(), payment.Notification{
		OrderID:           "ORD-6",
		TransactionStatus: "settlement",
		PaymentType:       "gopay",
		TransactionID:     "trx-123",
	})
	assert.NoError(t, err)
	orders.AssertCalled(t, "UpdatePaymentDate", mock.Anything, int64(12), mock.Anything)
}

// expire通知：failedに落ちる。在庫は触らない。
func TestHandleNotification_Expire_MarksFailed(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByOrderCode", mock.Anything, "ORD-2").Return(model.Order{ID: 8, OrderCode: "ORD-2", Status: model.OrderStatusPending}, nil)
	orders.On("UpdateGatewayInfo", mock.Anything, int64(8), "bank_transfer", "trx-9").Return(nil)
	orders.On("UpdateStatusIfIn", mock.Anything, int64(8),
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusWaitingConfirmation},
		model.OrderStatusFailed).Return(true, nil)

	inventory := new(OrderInventoryRepoMock)

	tx := &OrderTxManagerMock{Repos: &OrderTxReposMock{orders: orders, inventory: inventory}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	uc := paymentTestUsecase(tx, orders, new(GatewayMock), "")

	err := uc.HandleNotification(context.Background(), payment.Notification{
		OrderID:           "ORD-2",
		TransactionStatus: "expire",
		PaymentType:       "bank_transfer",
		TransactionID:     "trx-9",
	})
	assert.NoError(t, err)
	inventory.AssertNotCalled(t, "DecreaseStockIfEnough", mock.Anything, mock.Anything, mock.Anything)
}

// pending通知は何も遷移させない
func TestHandleNotification_Pending_NoTransition(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByOrderCode", mock.Anything, "ORD-3").Return(model.Order{ID: 9, OrderCode: "ORD-3", Status: model.OrderStatusPending}, nil)
	orders.On("UpdateGatewayInfo", mock.Anything, int64(9), "gopay", "trx-10").Return(nil)

	tx := &OrderTxManagerMock{Repos: &OrderTxReposMock{orders: orders}}
	tx.On("WithinTx", mock.Anything).Return(nil)

	uc := paymentTestUsecase(tx, orders, new(GatewayMock), "")

	err := uc.HandleNotification(context.Background(), payment.Notification{
		OrderID:           "ORD-3",
		TransactionStatus: "pending",
		PaymentType:       "gopay",
		TransactionID:     "trx-10",
	})
	assert.NoError(t, err)
	orders.AssertNotCalled(t, "UpdateStatusIfIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyByOrderCode_OtherUsersOrder(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByOrderCode", mock.Anything, "ORD-4").Return(model.Order{ID: 10, OrderCode: "ORD-4", UserID: 2}, nil)

	uc := paymentTestUsecase(&OrderTxManagerMock{}, orders, new(GatewayMock), "")

	out, err := uc.VerifyByOrderCode(context.Background(), 1, "ORD-4")
	assert.Nil(t, out)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestVerifyByOrderCode_GatewayError(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByOrderCode", mock.Anything, "ORD-5").Return(model.Order{ID: 11, OrderCode: "ORD-5", UserID: 1}, nil)

	gw := new(GatewayMock)
	gw.On("CheckTransaction", mock.Anything, "ORD-5").Return(payment.TransactionStatus{}, assert.AnError)

	uc := paymentTestUsecase(&OrderTxManagerMock{}, orders, gw, "")

	out, err := uc.VerifyByOrderCode(context.Background(), 1, "ORD-5")
	assert.Nil(t, out)
	assertHTTPStatus(t, err, http.StatusBadGateway)
}
