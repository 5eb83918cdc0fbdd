package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"app/internal/domain/model"
	"app/internal/payment"
	"app/internal/repository"
)

type PaymentUsecase struct {
	tx        repository.TransactionManager
	orders    repository.OrderRepository
	gateway   payment.Gateway
	serverKey string
	logger    *zap.Logger
}

func NewPaymentUsecase(
	tx repository.TransactionManager,
	orders repository.OrderRepository,
	gateway payment.Gateway,
	serverKey string,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:        tx,
		orders:    orders,
		gateway:   gateway,
		serverKey: serverKey,
		logger:    logger,
	}
}

// webhook受信。ゲートウェイは同じ通知を何度でも送ってくるので冪等に処理する。
func (u *PaymentUsecase) HandleNotification(ctx context.Context, n payment.Notification) error {
	if u.serverKey != "" && !n.VerifySignature(u.serverKey) {
		u.logger.Warn("webhook signature mismatch", zap.String("order_code", n.OrderID))
		return NewHTTPError(http.StatusForbidden, "invalid signature")
	}
	return u.apply(ctx, n.Status())
}

// ユーザー起点のポーリング確認。webhookが届かないときの保険。
func (u *PaymentUsecase) VerifyByOrderCode(ctx context.Context, userID int64, orderCode string) (*OrderView, error) {
	o, err := u.orders.FindByOrderCode(ctx, orderCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}
	if o.UserID != userID {
		return nil, NewHTTPError(http.StatusNotFound, "order not found")
	}

	ts, err := u.gateway.CheckTransaction(ctx, orderCode)
	if err != nil {
		u.logger.Error("check transaction", zap.String("order_code", orderCode), zap.Error(err))
		return nil, NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
	}

	if err := u.apply(ctx, ts); err != nil {
		return nil, err
	}

	//反映後の状態を返す
	o, err = u.orders.FindByOrderCode(ctx, orderCode)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}
	v := toOrderView(o, nil)
	return &v, nil
}

// 取引状態を注文へ反映する。status遷移はCASで行い、勝った呼び出しだけが在庫を引く。
// 負けた（=既に反映済みの）呼び出しはゲートウェイ情報の更新だけで終わる。
func (u *PaymentUsecase) apply(ctx context.Context, ts payment.TransactionStatus) error {
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		o, err := r.Orders().FindByOrderCode(ctx, ts.OrderCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			return err
		}

		//payment_typeとtransaction_idは通知のたびに上書きしてよい
		if ts.PaymentType != "" || ts.TransactionID != "" {
			if err := r.Orders().UpdateGatewayInfo(ctx, o.ID, ts.PaymentType, ts.TransactionID); err != nil {
				return err
			}
		}

		switch ts.Outcome() {
		case payment.OutcomePaid:
			swapped, err := r.Orders().UpdateStatusIfIn(ctx, o.ID,
				[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusWaitingConfirmation},
				model.OrderStatusPaid)
			if err != nil {
				return err
			}
			if !swapped {
				//重複通知か手動確定済み。在庫は二重に引かない。
				return nil
			}
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			for _, it := range items {
				ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					//決済は成立済みなので巻き戻さない。在庫ズレは運用で対応する。
					u.logger.Warn("stock shortage on settlement",
						zap.String("order_code", ts.OrderCode),
						zap.Int64("product_id", it.ProductID))
				}
			}
			if err := r.Orders().UpdatePaymentDate(ctx, o.ID, time.Now()); err != nil {
				return err
			}
			u.logger.Info("payment settled", zap.String("order_code", ts.OrderCode))
			return nil

		case payment.OutcomeFailed:
			swapped, err := r.Orders().UpdateStatusIfIn(ctx, o.ID,
				[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusWaitingConfirmation},
				model.OrderStatusFailed)
			if err != nil {
				return err
			}
			if swapped {
				u.logger.Info("payment failed", zap.String("order_code", ts.OrderCode),
					zap.String("transaction_status", ts.TransactionStatus))
			}
			return nil

		default:
			//pendingなど。何もしない。
			return nil
		}
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return err
		}
		u.logger.Error("apply transaction status", zap.String("order_code", ts.OrderCode), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "failed to apply payment status")
	}
	return nil
}
