package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	repo "catalog/internal/repository"
	"catalog/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrStorageUnavailable) {
		slog.ErrorContext(c.Request().Context(), "storage unavailable", "path", c.Path(), "error", err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})
	}

	//500
	slog.ErrorContext(c.Request().Context(), "internal error", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /products の公開API
type ProductHandler struct {
	uc *usecase.CatalogUsecase
}

// DI
func NewProductHandler(uc *usecase.CatalogUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
	e.GET("/categories", h.categories)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	out, err := h.uc.List(c.Request().Context(), c.QueryParam("category"), page)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, ok, err := h.uc.Product(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) categories(c echo.Context) error {
	cats, err := h.uc.Categories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, CategoriesResponse{Categories: cats})
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

