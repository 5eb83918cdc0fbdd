package repository

import "context"

// 在庫増減。支払確定で減算、キャンセルで戻す。
type InventoryRepository interface {
	// 在庫が足りるときだけ減らす。足りなければfalse。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
