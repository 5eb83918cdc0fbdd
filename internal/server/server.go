package server

import (
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/handler"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlersはルート登録に必要なハンドラ一式。
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminUser    *handler.AdminUserHandler
	Report       *handler.ReportHandler
}

// NewはEchoを組み立てて全ルートを登録する。
func New(cfg config.Config, logger *zap.Logger, h Handlers, userRepo repository.UserRepository) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(requestLogger(logger))

	if cfg.FEURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     []string{cfg.FEURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
			AllowCredentials: true,
		}))
	}

	//アップロードファイルの配信
	e.Static("/storage", cfg.StorageDir)

	registerRoutes(e, cfg, h, userRepo)

	return e
}

// アクセスログ（zap）
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			logger.Info("request",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", res.Status),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			)
			return nil
		}
	}
}
