package repository

import (
	"context"

	"app/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// ユーザー×商品で1行。既存があれば数量を上書き。
	// 2番目の戻り値は新規作成されたかどうか。
	Upsert(ctx context.Context, userID int64, productID int64, qty int64) (model.CartItem, bool, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteAllByUserID(ctx context.Context, userID int64) error
}
