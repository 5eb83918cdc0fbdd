package middleware

import (
	"net/http"

	"app/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextのroleが指定roleと一致するかを型付きで確認する。
func RequireRole(required model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole := c.Get(CtxUserRoleKey)
			roleStr, ok := rawRole.(string)
			if !ok || roleStr == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if model.Role(roleStr) != required {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			return next(c)
		}
	}
}
