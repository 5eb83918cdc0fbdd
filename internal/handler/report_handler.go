package handler

import (
	"fmt"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 売上レポートのダウンロード
type ReportHandler struct {
	uc *usecase.ReportUsecase
}

// DI
func NewReportHandler(uc *usecase.ReportUsecase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/admin/reports")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.GET("/sales/download/:format", h.downloadSales)
}

func (h *ReportHandler) downloadSales(c echo.Context) error {
	out, err := h.uc.GenerateSalesReport(c.Request().Context(), usecase.SalesReportInput{
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
		Format:    c.Param("format"),
	})
	if err != nil {
		return writeError(c, err)
	}

	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s"`, out.Filename))
	return c.Blob(200, out.ContentType, out.Content)
}
