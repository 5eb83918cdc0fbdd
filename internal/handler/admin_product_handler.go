package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理者向けの商品CRUD。multipartで画像を受ける。
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/products")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	name := c.FormValue("name")
	description := c.FormValue("description")

	price, err := formInt64(c, "price")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid price"})
	}
	stock, err := formInt64(c, "stock")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid stock"})
	}

	//画像は任意
	image := formFileOrNil(c, "image")

	out, err := h.uc.AdminCreate(c.Request().Context(), usecase.ProductCreateInput{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Image:       image,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	in := usecase.ProductUpdateInput{}
	if v := c.FormValue("name"); v != "" {
		in.Name = &v
	}
	if v := c.FormValue("description"); v != "" {
		in.Description = &v
	}
	if v := c.FormValue("price"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid price"})
		}
		in.Price = &x
	}
	if v := c.FormValue("stock"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid stock"})
		}
		in.Stock = &x
	}
	in.Image = formFileOrNil(c, "image")

	out, err := h.uc.AdminUpdate(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminProductHandler) delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.AdminDelete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func formInt64(c echo.Context, key string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(c.FormValue(key)), 10, 64)
}

// multipartのファイル。無ければnil。
func formFileOrNil(c echo.Context, key string) *multipart.FileHeader {
	fh, err := c.FormFile(key)
	if err != nil {
		return nil
	}
	return fh
}

// middlewareが入れたuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	id, ok := v.(int64)
	return id, ok
}
