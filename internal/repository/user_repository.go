package repository

import (
	"app/internal/domain/model"
	"context"
)

type UserListFilter struct {
	Page  int
	Limit int
	Q     string
}

// 保存・取得を約束
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, userID int64) error
	List(ctx context.Context, f UserListFilter) ([]model.User, int64, error)
	Count(ctx context.Context) (int64, error)
	//トークンのバージョンを＋１（強制ログアウト）
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
