package usecase_test

import (
	"context"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type AuthUserRepoMock struct{ mock.Mock }

func (m *AuthUserRepoMock) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	user.ID = 1
	return args.Error(0)
}

func (m *AuthUserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *AuthUserRepoMock) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *AuthUserRepoMock) Delete(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *AuthUserRepoMock) List(ctx context.Context, f repo.UserListFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, f)
	users, _ := args.Get(0).([]model.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *AuthUserRepoMock) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AuthUserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type RefreshTokenRepoMock struct{ mock.Mock }

func (m *RefreshTokenRepoMock) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	t, _ := args.Get(0).(*model.RefreshToken)
	return t, args.Error(1)
}

func (m *RefreshTokenRepoMock) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error {
	args := m.Called(ctx, tokenID, revokedAt)
	return args.Error(0)
}

func (m *RefreshTokenRepoMock) RevokeAllByUserID(ctx context.Context, userID int64, revokedAt time.Time) error {
	args := m.Called(ctx, userID, revokedAt)
	return args.Error(0)
}

// テスト用の素通しvalidator
type passthroughValidator struct{}

func (passthroughValidator) ValidateRegister(ctx context.Context, in usecase.RegisterInput) error {
	return nil
}

func (passthroughValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	return nil
}

func authTestUsecase(users *AuthUserRepoMock, rt *RefreshTokenRepoMock) *usecase.AuthUsecase {
	cfg := config.Config{JWTSecret: "test-secret"}
	return usecase.NewAuthUsecase(cfg, users, rt, passthroughValidator{})
}

func TestRegister_HashesPasswordAndIssuesToken(t *testing.T) {
	users := new(AuthUserRepoMock)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleUser &&
			u.IsActive &&
			u.PasswordHash != "" &&
			u.PasswordHash != "password123"
	})).Return(nil)

	uc := authTestUsecase(users, new(RefreshTokenRepoMock))

	out, err := uc.Register(context.Background(), usecase.RegisterInput{
		Name:     "Taro",
		Email:    "taro@example.com",
		Phone:    "08012345678",
		Address:  "Tokyo",
		Password: "password123",
	})
	assert.NoError(t, err)
	if assert.NotNil(t, out) {
		assert.Equal(t, "taro@example.com", out.User.Email)
		assert.Equal(t, "USER", out.User.Role)
		assert.NotEmpty(t, out.Token.AccessToken)
		assert.Equal(t, 900, out.Token.ExpiresIn)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)

	users := new(AuthUserRepoMock)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com", PasswordHash: string(hash), IsActive: true,
	}, nil)

	uc := authTestUsecase(users, new(RefreshTokenRepoMock))

	out, err := uc.Login(context.Background(), "taro@example.com", "wrong-password", "ua")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}

func TestLogin_InactiveUser(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	users := new(AuthUserRepoMock)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com", PasswordHash: string(hash), IsActive: false,
	}, nil)

	uc := authTestUsecase(users, new(RefreshTokenRepoMock))

	out, err := uc.Login(context.Background(), "taro@example.com", "password123", "ua")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, usecase.ErrForbidden)
}

func TestLogin_Success_StoresHashedRefreshToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	users := new(AuthUserRepoMock)
	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(&model.User{
		ID: 1, Email: "taro@example.com", PasswordHash: string(hash), IsActive: true, Role: model.RoleUser,
	}, nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)

	var storedHash string
	rt := new(RefreshTokenRepoMock)
	rt.On("Create", mock.Anything, mock.MatchedBy(func(tok *model.RefreshToken) bool {
		storedHash = tok.TokenHash
		return tok.UserID == 1 && tok.TokenHash != "" && tok.ExpiresAt.After(time.Now())
	})).Return(nil)

	uc := authTestUsecase(users, rt)

	out, err := uc.Login(context.Background(), "taro@example.com", "password123", "test-agent")
	assert.NoError(t, err)
	if assert.NotNil(t, out) {
		assert.NotEmpty(t, out.RefreshTokenPlain)
		assert.NotEmpty(t, out.CsrfTokenPlain)
		//平文はDBに保存されない
		assert.NotEqual(t, out.RefreshTokenPlain, storedHash)
	}
}

// 使用済みrefresh tokenの再提示は全tokenを失効させる
func TestRefresh_ReuseDetection_RevokesAll(t *testing.T) {
	used := time.Now().Add(-time.Hour)

	rt := new(RefreshTokenRepoMock)
	rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "tok-1",
		UserID:    1,
		UsedAt:    &used,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	rt.On("RevokeAllByUserID", mock.Anything, int64(1), mock.Anything).Return(nil)

	uc := authTestUsecase(new(AuthUserRepoMock), rt)

	out, err := uc.Refresh(context.Background(), "stolen-token", "ua")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, usecase.ErrSecurityIncident)
	rt.AssertCalled(t, "RevokeAllByUserID", mock.Anything, int64(1), mock.Anything)
}

func TestRefresh_Success_RotatesToken(t *testing.T) {
	rt := new(RefreshTokenRepoMock)
	rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "tok-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	rt.On("MarkUsed", mock.Anything, "tok-1", mock.Anything).Return(nil)
	rt.On("Create", mock.Anything, mock.Anything).Return(nil)

	users := new(AuthUserRepoMock)
	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
		ID: 1, IsActive: true, Role: model.RoleUser,
	}, nil)

	uc := authTestUsecase(users, rt)

	out, err := uc.Refresh(context.Background(), "valid-token", "ua")
	assert.NoError(t, err)
	if assert.NotNil(t, out) {
		assert.NotEmpty(t, out.Body.AccessToken)
		assert.NotEmpty(t, out.RefreshTokenPlain)
	}
	rt.AssertCalled(t, "MarkUsed", mock.Anything, "tok-1", mock.Anything)
	rt.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRefresh_Expired(t *testing.T) {
	rt := new(RefreshTokenRepoMock)
	rt.On("FindByTokenHash", mock.Anything, mock.Anything).Return(&model.RefreshToken{
		ID:        "tok-1",
		UserID:    1,
		ExpiresAt: time.Now().Add(-time.Minute),
	}, nil)

	uc := authTestUsecase(new(AuthUserRepoMock), rt)

	out, err := uc.Refresh(context.Background(), "expired-token", "ua")
	assert.Nil(t, out)
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
}
