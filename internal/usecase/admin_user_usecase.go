package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"app/internal/domain/model"
	"app/internal/repository"
)

type AdminUserListResult struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type AdminUserCreateInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     string
}

type AdminUserUpdateInput struct {
	Name     *string
	Phone    *string
	Address  *string
	Password *string
	Role     *string
	IsActive *bool
}

type AdminUserUsecase struct {
	users  repository.UserRepository
	rtRepo repository.RefreshTokenRepository
	logger *zap.Logger
}

func NewAdminUserUsecase(users repository.UserRepository, rtRepo repository.RefreshTokenRepository, logger *zap.Logger) *AdminUserUsecase {
	return &AdminUserUsecase{
		users:  users,
		rtRepo: rtRepo,
		logger: logger,
	}
}

func (u *AdminUserUsecase) List(ctx context.Context, page int, limit int, q string) (*AdminUserListResult, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	users, total, err := u.users.List(ctx, repository.UserListFilter{Page: page, Limit: limit, Q: strings.TrimSpace(q)})
	if err != nil {
		u.logger.Error("admin list users", zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}

	result := &AdminUserListResult{Items: []UserDTO{}, Total: total, Page: page, Limit: limit}
	for i := range users {
		result.Items = append(result.Items, toUserDTO(&users[i]))
	}
	return result, nil
}

func (u *AdminUserUsecase) Get(ctx context.Context, userID int64) (*UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		if errors.Is(err, repository.ErrNotFound) || user == nil {
			return nil, NewHTTPError(http.StatusNotFound, "user not found")
		}
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}
	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AdminUserUsecase) Create(ctx context.Context, in AdminUserCreateInput) (*UserDTO, error) {
	role := model.Role(in.Role)
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, NewHTTPError(http.StatusBadRequest, "unknown role")
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "name and email are required")
	}
	if len(in.Password) < 8 {
		return nil, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	if existing, err := u.users.FindByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, NewHTTPError(http.StatusConflict, "email already used")
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Phone:        in.Phone,
		Address:      in.Address,
		PasswordHash: string(pwHash),
		Role:         role,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		u.logger.Error("admin create user", zap.Error(err))
		return nil, NewHTTPError(http.StatusConflict, "failed to create user")
	}
	dto := toUserDTO(user)
	return &dto, nil
}

// ユーザー更新。role変更・停止はtoken_versionを進めて既存のaccess tokenを無効化する。
func (u *AdminUserUsecase) Update(ctx context.Context, userID int64, in AdminUserUpdateInput) (*UserDTO, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, NewHTTPError(http.StatusNotFound, "user not found")
	}

	forceLogout := false

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
		}
		pwHash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "failed to update user")
		}
		user.PasswordHash = string(pwHash)
		forceLogout = true
	}
	if in.Role != nil {
		role := model.Role(*in.Role)
		if role != model.RoleUser && role != model.RoleAdmin {
			return nil, NewHTTPError(http.StatusBadRequest, "unknown role")
		}
		if role != user.Role {
			user.Role = role
			forceLogout = true
		}
	}
	if in.IsActive != nil {
		if user.IsActive && !*in.IsActive {
			forceLogout = true
		}
		user.IsActive = *in.IsActive
	}

	if err := u.users.Update(ctx, user); err != nil {
		u.logger.Error("admin update user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}

	if forceLogout {
		now := time.Now()
		if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
			u.logger.Warn("increment token version", zap.Int64("user_id", userID), zap.Error(err))
		} else {
			user.TokenVersion++
		}
		if err := u.rtRepo.RevokeAllByUserID(ctx, userID, now); err != nil {
			u.logger.Warn("revoke refresh tokens", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	dto := toUserDTO(user)
	return &dto, nil
}

func (u *AdminUserUsecase) Delete(ctx context.Context, userID int64) error {
	if err := u.rtRepo.RevokeAllByUserID(ctx, userID, time.Now()); err != nil {
		u.logger.Warn("revoke refresh tokens", zap.Int64("user_id", userID), zap.Error(err))
	}
	if err := u.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "user not found")
		}
		u.logger.Error("admin delete user", zap.Int64("user_id", userID), zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}
	return nil
}
