package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByOrderCode(ctx context.Context, orderCode string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	// UPDATE ... WHERE status IN (from...) のcompare-and-swap。
	// 戻り値は「この呼び出しが実際に遷移させたか」。重複通知はここでfalseになる。
	UpdateStatusIfIn(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (bool, error)

	// 証憑・支払日・ゲートウェイ連携フィールドの部分更新
	UpdateSnapToken(ctx context.Context, orderID int64, snapToken string) error
	UpdatePaymentProof(ctx context.Context, orderID int64, proofPath string, paidAt time.Time) error
	UpdatePaymentDate(ctx context.Context, orderID int64, paidAt time.Time) error
	UpdateGatewayInfo(ctx context.Context, orderID int64, paymentType string, transactionID string) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	//売上レポート用：現在paidで支払日が期間内の注文（支払日の新しい順）
	ListPaidBetween(ctx context.Context, from time.Time, to time.Time) ([]model.Order, error)
}
