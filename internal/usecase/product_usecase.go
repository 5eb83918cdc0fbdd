package usecase

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/storage"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ProductListInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListResult struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type ProductCreateInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	Image       *multipart.FileHeader
}

type ProductUpdateInput struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int64
	Image       *multipart.FileHeader
}

type ProductUsecase struct {
	products repository.ProductRepository
	store    *storage.FileStore
	logger   *zap.Logger
}

func NewProductUsecase(products repository.ProductRepository, store *storage.FileStore, logger *zap.Logger) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		store:    store,
		logger:   logger,
	}
}

// 公開side：商品一覧（検索・価格帯・ソート付き）
func (u *ProductUsecase) List(ctx context.Context, in ProductListInput) (*ProductListResult, error) {
	if in.Page <= 0 {
		in.Page = 1
	}
	if in.Limit <= 0 {
		in.Limit = defaultPageLimit
	}
	if in.Limit > maxPageLimit {
		in.Limit = maxPageLimit
	}
	if in.MinPrice != nil && *in.MinPrice < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "min_price must not be negative")
	}
	if in.MaxPrice != nil && *in.MaxPrice < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "max_price must not be negative")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && *in.MinPrice > *in.MaxPrice {
		return nil, NewHTTPError(http.StatusBadRequest, "min_price must not exceed max_price")
	}

	switch in.Sort {
	case "", "newest", "price_asc", "price_desc", "name":
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "unknown sort")
	}

	items, total, err := u.products.List(ctx, repository.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		u.logger.Error("list products", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to list products")
	}

	return &ProductListResult{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) Detail(ctx context.Context, productID int64) (*model.Product, error) {
	p, err := u.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "product not found")
		}
		u.logger.Error("find product", zap.Int64("product_id", productID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}
	return &p, nil
}

// 管理者側：商品登録。画像は任意。
func (u *ProductUsecase) AdminCreate(ctx context.Context, in ProductCreateInput) (*model.Product, error) {
	if err := validateProductFields(in.Name, in.Price, in.Stock); err != nil {
		return nil, err
	}

	imagePath := ""
	if in.Image != nil {
		path, err := u.store.Save(in.Image, "products", storage.ImageExts)
		if err != nil {
			return nil, uploadError(err)
		}
		imagePath = path
	}

	created, err := u.products.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Image:       imagePath,
	})
	if err != nil {
		u.logger.Error("create product", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to create product")
	}
	return &created, nil
}

// 管理者側：商品更新。指定されたフィールドだけ書き換える。
// 画像を差し替えたら旧画像ファイルは消す。
func (u *ProductUsecase) AdminUpdate(ctx context.Context, productID int64, in ProductUpdateInput) (*model.Product, error) {
	p, err := u.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewHTTPError(http.StatusNotFound, "product not found")
		}
		u.logger.Error("find product", zap.Int64("product_id", productID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load product")
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if err := validateProductFields(p.Name, p.Price, p.Stock); err != nil {
		return nil, err
	}

	oldImage := ""
	if in.Image != nil {
		path, err := u.store.Save(in.Image, "products", storage.ImageExts)
		if err != nil {
			return nil, uploadError(err)
		}
		oldImage = p.Image
		p.Image = path
	}

	if err := u.products.Update(ctx, p); err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to update product")
	}

	if oldImage != "" {
		if err := u.store.Remove(oldImage); err != nil {
			u.logger.Warn("remove old product image", zap.String("path", oldImage), zap.Error(err))
		}
	}

	return &p, nil
}

// 管理者側：商品削除（論理削除）。注文履歴のスナップショットは影響を受けない。
func (u *ProductUsecase) AdminDelete(ctx context.Context, productID int64) error {
	if err := u.products.SoftDelete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		u.logger.Error("delete product", zap.Int64("product_id", productID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "failed to delete product")
	}
	return nil
}

func validateProductFields(name string, price int64, stock int64) error {
	if strings.TrimSpace(name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if len(name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name is too long")
	}
	if price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}
	if stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must not be negative")
	}
	return nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, storage.ErrFileTooLarge):
		return NewHTTPError(http.StatusBadRequest, "file too large (max 2MB)")
	case errors.Is(err, storage.ErrUnsupportedFileExt):
		return NewHTTPError(http.StatusBadRequest, "unsupported file type")
	default:
		return NewHTTPError(http.StatusInternalServerError, "failed to store file")
	}
}
