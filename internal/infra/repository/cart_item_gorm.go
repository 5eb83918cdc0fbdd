package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

func (r *CartItemGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.CartItem{}, err
	}
	return items, nil
}

// ユーザー×商品で1行。既存があれば数量を上書きする。
func (r *CartItemGormRepository) Upsert(ctx context.Context, userID int64, productID int64, qty int64) (model.CartItem, bool, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = model.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
		}
		if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
			return model.CartItem{}, false, err
		}
		return item, true, nil
	}
	if err != nil {
		return model.CartItem{}, false, err
	}

	item.Quantity = qty
	res := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("id = ?", item.ID).
		Update("quantity", qty)
	if res.Error != nil {
		return model.CartItem{}, false, res.Error
	}
	return item, false, nil
}

func (r *CartItemGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).First(&item, cartItemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartItem{}, err
	}
	return item, nil
}

func (r *CartItemGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// チェックアウト後のカートクリア
func (r *CartItemGormRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItem{}).Error
}
