package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"app/internal/repository"
)

type CartLine struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	Price        int64  `json:"price"`
	Quantity     int64  `json:"quantity"`
	Subtotal     int64  `json:"subtotal"`
}

type CartResult struct {
	Items []CartLine `json:"items"`
	Total int64      `json:"total"`
}

type AddToCartResult struct {
	Item CartLine `json:"item"`
	//既存行の数量上書きではなく新規行だったか（201/200の判定用）
	Created bool `json:"-"`
}

type CartUsecase struct {
	carts    repository.CartItemRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartUsecase(carts repository.CartItemRepository, products repository.ProductRepository, logger *zap.Logger) *CartUsecase {
	return &CartUsecase{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// 自分のカートを商品情報付きで返す
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (*CartResult, error) {
	items, err := u.carts.ListByUserID(ctx, userID)
	if err != nil {
		u.logger.Error("list cart items", zap.Int64("user_id", userID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load cart")
	}

	result := &CartResult{Items: []CartLine{}}
	for _, item := range items {
		p, err := u.products.FindByID(ctx, item.ProductID)
		if err != nil {
			//削除済み商品の行は表示しない
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, NewHTTPError(http.StatusInternalServerError, "failed to load cart")
		}
		line := CartLine{
			ID:           item.ID,
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.Image,
			Price:        p.Price,
			Quantity:     item.Quantity,
			Subtotal:     p.Price * item.Quantity,
		}
		result.Items = append(result.Items, line)
		result.Total += line.Subtotal
	}
	return result, nil
}

// カートに商品を入れる。既に入っていれば数量を上書き（加算ではない）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, productID int64, qty int64) (*AddToCartResult, error) {
	if qty <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	}

	p, err := u.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}

	//カート投入時点でも在庫は見る（確定チェックはチェックアウト側）
	if qty > p.Stock {
		return nil, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("insufficient stock: only %d left", p.Stock))
	}

	item, created, err := u.carts.Upsert(ctx, userID, productID, qty)
	if err != nil {
		u.logger.Error("upsert cart item", zap.Int64("user_id", userID), zap.Int64("product_id", productID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to update cart")
	}

	return &AddToCartResult{
		Item: CartLine{
			ID:           item.ID,
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.Image,
			Price:        p.Price,
			Quantity:     item.Quantity,
			Subtotal:     p.Price * item.Quantity,
		},
		Created: created,
	}, nil
}

// カート行の削除。他人の行は消せない。
func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID int64, cartItemID int64) error {
	item, err := u.carts.FindByID(ctx, cartItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "failed to load cart item")
	}
	if item.UserID != userID {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if err := u.carts.DeleteByID(ctx, cartItemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "failed to delete cart item")
	}
	return nil
}
