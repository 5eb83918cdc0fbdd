package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/payment"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済ゲートウェイとの受け口。webhookは公開、verifyは本人のみ。
type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type VerifyRequest struct {
	OrderCode string `json:"order_code"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	//ゲートウェイのサーバーが叩く（認証なし、署名で検証）
	e.POST("/midtrans/notification", h.notification)

	e.POST("/midtrans/verify", h.verify,
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	)
}

func (h *PaymentHandler) notification(c echo.Context) error {
	var n payment.Notification
	if err := c.Bind(&n); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid notification body"})
	}
	if n.OrderID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_id is required"})
	}

	if err := h.uc.HandleNotification(c.Request().Context(), n); err != nil {
		//404を返すとゲートウェイはリトライをやめる
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *PaymentHandler) verify(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.OrderCode == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "order_code is required"})
	}

	out, err := h.uc.VerifyByOrderCode(c.Request().Context(), userID, req.OrderCode)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
