package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, userID int64, role model.Role, tv int, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": string(role),
		"tv":   tv,
		"iat":  time.Now().Unix(),
		"exp":  exp.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runAuthJWT(t *testing.T, authz string) (int, echo.Context) {
	t.Helper()
	cfg := config.Config{JWTSecret: testSecret}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := middleware.AuthJWT(cfg)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec.Code, c
}

func TestAuthJWT_ValidToken(t *testing.T) {
	token := signToken(t, testSecret, 42, model.RoleUser, 3, time.Now().Add(time.Minute))

	code, c := runAuthJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, code)

	assert.Equal(t, int64(42), c.Get(middleware.CtxUserIDKey))
	assert.Equal(t, "USER", c.Get(middleware.CtxUserRoleKey))
	assert.Equal(t, 3, c.Get(middleware.CtxTokenVersionKey))
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	code, _ := runAuthJWT(t, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthJWT_NotBearer(t *testing.T) {
	code, _ := runAuthJWT(t, "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	token := signToken(t, "other-secret", 42, model.RoleUser, 0, time.Now().Add(time.Minute))

	code, _ := runAuthJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthJWT_Expired(t *testing.T) {
	token := signToken(t, testSecret, 42, model.RoleUser, 0, time.Now().Add(-time.Minute))

	code, _ := runAuthJWT(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set(middleware.CtxUserRoleKey, role)
		}

		h := middleware.RequireRole(model.RoleAdmin)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		_ = h(c)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run("ADMIN"))
	assert.Equal(t, http.StatusForbidden, run("USER"))
	assert.Equal(t, http.StatusUnauthorized, run(""))
}
