package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"app/internal/domain/model"
	"app/internal/payment"
	"app/internal/repository"
	"app/internal/storage"
)

type PlaceOrderInput struct {
	PaymentMethod string
}

type OrderItemView struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Price       int64  `json:"price"`
	Quantity    int64  `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

type OrderView struct {
	ID                    int64           `json:"id"`
	OrderCode             string          `json:"order_code"`
	Total                 int64           `json:"total"`
	Status                string          `json:"status"`
	PaymentMethod         string          `json:"payment_method"`
	PaymentType           string          `json:"payment_type,omitempty"`
	PaymentProof          string          `json:"payment_proof,omitempty"`
	PaymentDate           *time.Time      `json:"payment_date,omitempty"`
	SnapToken             string          `json:"snap_token,omitempty"`
	MidtransTransactionID string          `json:"midtrans_transaction_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	Items                 []OrderItemView `json:"items,omitempty"`
}

type OrderListResult struct {
	Items []OrderView `json:"items"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

type OrderUsecase struct {
	tx      repository.TransactionManager
	orders  repository.OrderRepository
	items   repository.OrderItemRepository
	users   repository.UserRepository
	gateway payment.Gateway
	store   *storage.FileStore
	logger  *zap.Logger
}

func NewOrderUsecase(
	tx repository.TransactionManager,
	orders repository.OrderRepository,
	items repository.OrderItemRepository,
	users repository.UserRepository,
	gateway payment.Gateway,
	store *storage.FileStore,
	logger *zap.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:      tx,
		orders:  orders,
		items:   items,
		users:   users,
		gateway: gateway,
		store:   store,
		logger:  logger,
	}
}

// チェックアウト。カート検証→在庫確認→注文作成→カート空に、を1トランザクションで行う。
// midtransの場合はsnap token取得までTx内。ゲートウェイが落ちたら注文ごとロールバック。
// 在庫の減算はここではやらない（paid遷移時にまとめて引く）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (*OrderView, error) {
	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	switch method {
	case model.PaymentMethodBankTransfer, model.PaymentMethodCOD, model.PaymentMethodMidtrans:
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "unknown payment method")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, NewHTTPError(http.StatusUnauthorized, "user not found")
	}

	var view *OrderView
	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		var (
			total      int64
			orderItems []model.OrderItem
			gwItems    []payment.ItemDetail
		)
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return NewHTTPError(http.StatusBadRequest, "cart contains a product that is no longer available")
				}
				return err
			}
			//確定直前の在庫チェック。足りなければ注文自体を作らない。
			if ci.Quantity > p.Stock {
				return NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("insufficient stock for %s: only %d left", p.Name, p.Stock))
			}
			total += p.Price * ci.Quantity
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				Price:               p.Price,
				Quantity:            ci.Quantity,
			})
			gwItems = append(gwItems, payment.ItemDetail{
				ID:    fmt.Sprintf("%d", p.ID),
				Name:  p.Name,
				Price: p.Price,
				Qty:   int32(ci.Quantity),
			})
		}

		order := model.Order{
			UserID:        userID,
			OrderCode:     "ORD-" + uuid.NewString(),
			Total:         total,
			Status:        model.OrderStatusPending,
			PaymentMethod: method,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}
		if err := r.CartItems().DeleteAllByUserID(ctx, userID); err != nil {
			return err
		}

		snapToken := ""
		if method == model.PaymentMethodMidtrans {
			token, err := u.gateway.CreateSnapToken(ctx, order.OrderCode, total, payment.Customer{
				Name:  user.Name,
				Email: user.Email,
				Phone: user.Phone,
			}, gwItems)
			if err != nil {
				u.logger.Error("create snap token", zap.String("order_code", order.OrderCode), zap.Error(err))
				return NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
			}
			if err := r.Orders().UpdateSnapToken(ctx, orderID, token); err != nil {
				return err
			}
			snapToken = token
		}

		order.ID = orderID
		order.SnapToken = snapToken
		v := toOrderView(order, orderItems)
		view = &v
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return nil, err
		}
		u.logger.Error("place order", zap.Int64("user_id", userID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to place order")
	}
	return view, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (*OrderListResult, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	orders, total, err := u.orders.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		u.logger.Error("list my orders", zap.Int64("user_id", userID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to list orders")
	}

	result := &OrderListResult{Items: []OrderView{}, Total: total, Page: page, Limit: limit}
	for _, o := range orders {
		result.Items = append(result.Items, toOrderView(o, nil))
	}
	return result, nil
}

// 注文詳細。他人の注文は存在ごと隠す（404）。
func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (*OrderView, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}
	if o.UserID != userID {
		return nil, NewHTTPError(http.StatusNotFound, "order not found")
	}

	items, err := u.items.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order items")
	}
	v := toOrderView(o, items)
	return &v, nil
}

// 振込証憑のアップロード。pending → waiting_confirmation。
func (u *OrderUsecase) UploadPaymentProof(ctx context.Context, userID int64, orderID int64, file *multipart.FileHeader) (*OrderView, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load order")
	}
	if o.UserID != userID {
		return nil, NewHTTPError(http.StatusNotFound, "order not found")
	}
	if o.PaymentMethod != model.PaymentMethodBankTransfer {
		return nil, NewHTTPError(http.StatusBadRequest, "payment proof is only for bank transfer orders")
	}
	if o.Status != model.OrderStatusPending {
		return nil, NewHTTPError(http.StatusBadRequest, "order is not awaiting payment")
	}
	if file == nil {
		return nil, NewHTTPError(http.StatusBadRequest, "payment_proof file is required")
	}

	proofPath, err := u.store.Save(file, "payment_proofs", storage.ProofExts)
	if err != nil {
		return nil, uploadError(err)
	}

	now := time.Now()
	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if err := r.Orders().UpdatePaymentProof(ctx, orderID, proofPath, now); err != nil {
			return err
		}
		swapped, err := r.Orders().UpdateStatusIfIn(ctx, orderID,
			[]model.OrderStatus{model.OrderStatusPending}, model.OrderStatusWaitingConfirmation)
		if err != nil {
			return err
		}
		if !swapped {
			return NewHTTPError(http.StatusConflict, "order status changed, please reload")
		}
		return nil
	})
	if err != nil {
		//遷移に失敗したら保存済みファイルは掃除する
		_ = u.store.Remove(proofPath)
		if _, ok := AsHTTPError(err); ok {
			return nil, err
		}
		u.logger.Error("upload payment proof", zap.Int64("order_id", orderID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to save payment proof")
	}

	o.Status = model.OrderStatusWaitingConfirmation
	o.PaymentProof = proofPath
	v := toOrderView(o, nil)
	return &v, nil
}

func toOrderView(o model.Order, items []model.OrderItem) OrderView {
	v := OrderView{
		ID:                    o.ID,
		OrderCode:             o.OrderCode,
		Total:                 o.Total,
		Status:                string(o.Status),
		PaymentMethod:         string(o.PaymentMethod),
		PaymentType:           o.PaymentType,
		PaymentProof:          o.PaymentProof,
		PaymentDate:           o.PaymentDate,
		SnapToken:             o.SnapToken,
		MidtransTransactionID: o.MidtransTransactionID,
		CreatedAt:             o.CreatedAt,
	}
	for _, it := range items {
		v.Items = append(v.Items, OrderItemView{
			ProductID:   it.ProductID,
			ProductName: it.ProductNameSnapshot,
			Price:       it.Price,
			Quantity:    it.Quantity,
			Subtotal:    it.Price * it.Quantity,
		})
	}
	return v
}
