package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const routeTestSecret = "test-secret"

// TokenVersionGuard用。tv=0の有効ユーザーを常に返す。
type staticUserRepo struct {
	role model.Role
}

func (r *staticUserRepo) Create(ctx context.Context, user *model.User) error { return nil }
func (r *staticUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	return &model.User{ID: userID, Role: r.role, IsActive: true, TokenVersion: 0}, nil
}
func (r *staticUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, repository.ErrNotFound
}
func (r *staticUserRepo) Update(ctx context.Context, user *model.User) error { return nil }
func (r *staticUserRepo) Delete(ctx context.Context, userID int64) error     { return nil }

func (r *staticUserRepo) List(ctx context.Context, f repository.UserListFilter) ([]model.User, int64, error) {
	return nil, 0, nil
}
func (r *staticUserRepo) Count(ctx context.Context) (int64, error) { return 0, nil }
func (r *staticUserRepo) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return nil
}

type emptyCartRepo struct{}

func (r *emptyCartRepo) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	return nil, nil
}
func (r *emptyCartRepo) Upsert(ctx context.Context, userID, productID, qty int64) (model.CartItem, bool, error) {
	return model.CartItem{}, false, nil
}
func (r *emptyCartRepo) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	return model.CartItem{}, repository.ErrNotFound
}
func (r *emptyCartRepo) DeleteByID(ctx context.Context, cartItemID int64) error { return nil }
func (r *emptyCartRepo) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return nil
}

type emptyProductRepo struct{}

func (r *emptyProductRepo) List(ctx context.Context, q repository.ProductListQuery) ([]model.Product, int64, error) {
	return nil, 0, nil
}
func (r *emptyProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	return model.Product{}, repository.ErrNotFound
}
func (r *emptyProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	return p, nil
}
func (r *emptyProductRepo) Update(ctx context.Context, p model.Product) error { return nil }
func (r *emptyProductRepo) SoftDelete(ctx context.Context, id int64) error    { return nil }

func signRouteToken(t *testing.T, userID int64, role model.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": string(role),
		"tv":   0,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Minute).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(routeTestSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newUserRouteServer(role model.Role) *echo.Echo {
	cfg := config.Config{JWTSecret: routeTestSecret}
	userRepo := &staticUserRepo{role: role}

	e := echo.New()
	cartUC := usecase.NewCartUsecase(&emptyCartRepo{}, &emptyProductRepo{}, zap.NewNop())
	handler.NewCartHandler(cartUC).RegisterRoutes(e, cfg, userRepo)
	orderUC := usecase.NewOrderUsecase(nil, nil, nil, userRepo, nil, nil, zap.NewNop())
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, cfg, userRepo)
	return e
}

func doRouteRequest(e *echo.Echo, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

// 管理者トークンではカート・注文のユーザー用ルートに入れない。
func TestUserRoutes_AdminRoleIsForbidden(t *testing.T) {
	e := newUserRouteServer(model.RoleAdmin)
	token := signRouteToken(t, 7, model.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, doRouteRequest(e, http.MethodGet, "/orders", token))
	assert.Equal(t, http.StatusForbidden, doRouteRequest(e, http.MethodGet, "/cart", token))
	assert.Equal(t, http.StatusForbidden, doRouteRequest(e, http.MethodPost, "/checkout", token))
}

func TestUserRoutes_UserRolePasses(t *testing.T) {
	e := newUserRouteServer(model.RoleUser)
	token := signRouteToken(t, 7, model.RoleUser)

	assert.Equal(t, http.StatusOK, doRouteRequest(e, http.MethodGet, "/cart", token))
}

func TestUserRoutes_NoTokenIsUnauthorized(t *testing.T) {
	e := newUserRouteServer(model.RoleUser)

	assert.Equal(t, http.StatusUnauthorized, doRouteRequest(e, http.MethodGet, "/cart", ""))
	assert.Equal(t, http.StatusUnauthorized, doRouteRequest(e, http.MethodGet, "/orders", ""))
}
