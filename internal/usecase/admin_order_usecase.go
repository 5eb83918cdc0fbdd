package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"app/internal/domain/model"
	"app/internal/repository"
)

type AdminOrderView struct {
	OrderView
	UserID        int64  `json:"user_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

type AdminOrderListResult struct {
	Items []AdminOrderView `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type AdminOrderUsecase struct {
	tx     repository.TransactionManager
	orders repository.OrderRepository
	items  repository.OrderItemRepository
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAdminOrderUsecase(
	tx repository.TransactionManager,
	orders repository.OrderRepository,
	items repository.OrderItemRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		tx:     tx,
		orders: orders,
		items:  items,
		users:  users,
		logger: logger,
	}
}

func (u *AdminOrderUsecase) List(ctx context.Context, f repository.AdminOrderListFilter) (*AdminOrderListResult, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	if f.Status != "" && !knownStatus(model.OrderStatus(f.Status)) {
		return nil, NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		u.logger.Error("admin list orders", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}

	result := &AdminOrderListResult{Items: []AdminOrderView{}, Total: total, Page: f.Page, Limit: f.Limit}
	for _, o := range orders {
		result.Items = append(result.Items, u.enrich(ctx, o, nil))
	}
	return result, nil
}

func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (*AdminOrderView, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}
	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order items")
	}
	v := u.enrich(ctx, o, items)
	return &v, nil
}

// 振込の入金確認。waiting_confirmation → paid。証憑が無い注文は確定させない。
// 在庫の引き落としはこの遷移に勝った呼び出しだけが行う（webhookと同じ規約）。
func (u *AdminOrderUsecase) ConfirmPayment(ctx context.Context, orderID int64) (*AdminOrderView, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}
	if o.PaymentProof == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "order has no payment proof")
	}

	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		swapped, err := r.Orders().UpdateStatusIfIn(ctx, orderID,
			[]model.OrderStatus{model.OrderStatusWaitingConfirmation}, model.OrderStatusPaid)
		if err != nil {
			return err
		}
		if !swapped {
			return NewHTTPError(http.StatusConflict, "order is not waiting for confirmation")
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				//手動確定は在庫を直してから再実行してもらう
				return NewHTTPError(http.StatusConflict, "insufficient stock to confirm payment")
			}
		}
		return r.Orders().UpdatePaymentDate(ctx, orderID, time.Now())
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return nil, err
		}
		u.logger.Error("confirm payment", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to confirm payment")
	}

	return u.Detail(ctx, orderID)
}

// 管理者による状態更新（processing / shipped / completed / cancelled）。
// cancelledに落とすとき、在庫を既に引いた状態からなら戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, orderID int64, target string) (*AdminOrderView, error) {
	to := model.OrderStatus(target)
	switch to {
	case model.OrderStatusProcessing, model.OrderStatusShipped,
		model.OrderStatusCompleted, model.OrderStatusCancelled:
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "unknown target status")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}

	if o.Status == to {
		//同じ状態への更新はno-op
		return u.Detail(ctx, orderID)
	}
	if !model.CanTransition(o.Status, to) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid status transition")
	}

	from := o.Status
	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		swapped, err := r.Orders().UpdateStatusIfIn(ctx, orderID, []model.OrderStatus{from}, to)
		if err != nil {
			return err
		}
		if !swapped {
			return NewHTTPError(http.StatusConflict, "order status changed, please reload")
		}
		//在庫を引いた後のキャンセルだけ在庫を戻す
		if to == model.OrderStatusCancelled && model.StockHeld(from) {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return nil, err
		}
		u.logger.Error("update order status", zap.Int64("order_id", orderID),
			zap.String("to", string(to)), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to update order status")
	}

	return u.Detail(ctx, orderID)
}

func (u *AdminOrderUsecase) enrich(ctx context.Context, o model.Order, items []model.OrderItem) AdminOrderView {
	v := AdminOrderView{
		OrderView: toOrderView(o, items),
		UserID:    o.UserID,
	}
	if user, err := u.users.FindByID(ctx, o.UserID); err == nil && user != nil {
		v.CustomerName = user.Name
		v.CustomerEmail = user.Email
	}
	return v
}

func knownStatus(s model.OrderStatus) bool {
	switch s {
	case model.OrderStatusPending, model.OrderStatusWaitingConfirmation, model.OrderStatusPaid,
		model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusCompleted,
		model.OrderStatusCancelled, model.OrderStatusFailed:
		return true
	default:
		return false
	}
}
