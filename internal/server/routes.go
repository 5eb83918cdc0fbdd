package server

import (
	"app/internal/config"
	"app/internal/repository"

	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, cfg config.Config, h Handlers, userRepo repository.UserRepository) {
	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.Payment.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminUser.RegisterRoutes(e, cfg, userRepo)
	h.Report.RegisterRoutes(e, cfg, userRepo)
}
