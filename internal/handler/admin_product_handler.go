package handler

import (
	"net/http"
	"strconv"

	"catalog/internal/domain/model"
	"catalog/internal/middleware"
	repo "catalog/internal/repository"
	"catalog/internal/usecase"
	"catalog/internal/validator"

	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Message string `json:"message"`
}

type ProductListResponse struct {
	Items []model.Product `json:"items"`
}

// 編集画面に渡す内容
type EditResponse struct {
	State   usecase.EditState `json:"state"`
	Product model.Product     `json:"product"`
}

type DeleteResponse struct {
	Message string        `json:"message"`
	Product model.Product `json:"product"`
}

type AuditLogListResponse struct {
	Items []model.AuditLog `json:"items"`
}

// /admin/products と /admin/audit-logs をまとめる
type AdminProductHandler struct {
	uc        *usecase.AdminProductUsecase
	validator *validator.ProductValidator
}

// DI
func NewAdminProductHandler(uc *usecase.AdminProductUsecase, v *validator.ProductValidator) *AdminProductHandler {
	return &AdminProductHandler{uc: uc, validator: v}
}

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	admin := e.Group("/admin")

	admin.Use(middleware.AuthJWT(jwtSecret))
	admin.Use(middleware.AdminRoleGuard())

	admin.GET("/products", h.index)
	admin.GET("/products/new", h.newProduct)
	admin.GET("/products/:id", h.editProduct)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminProductHandler) index(c echo.Context) error {
	items, err := h.uc.Index(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ProductListResponse{Items: items})
}

func (h *AdminProductHandler) newProduct(c echo.Context) error {
	return c.JSON(http.StatusOK, EditResponse{State: usecase.EditStateEditing, Product: h.uc.BeginCreate()})
}

func (h *AdminProductHandler) editProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, ok, err := h.uc.BeginEdit(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
	}

	return c.JSON(http.StatusOK, EditResponse{State: usecase.EditStateEditing, Product: p})
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	return h.submit(c, 0)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}
	return h.submit(c, id)
}

// 作成と更新の共通処理。検証エラーは 422 で候補ごと返す。
func (h *AdminProductHandler) submit(c echo.Context, id int64) error {
	adminID, ok := middleware.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var (
		form       validator.ProductForm
		candidate  model.Product
		validation usecase.ValidationResult
	)
	if err := c.Bind(&form); err != nil {
		// 読めないボディも検証エラーとして編集画面に戻す
		candidate, validation = model.Product{ID: id}, validator.MalformedForm()
	} else {
		candidate, validation = h.validator.Validate(id, form)
	}

	res, err := h.uc.SubmitEdit(c.Request().Context(), adminID, candidate, validation)
	if err != nil {
		return writeError(c, err)
	}
	if !res.Saved() {
		return c.JSON(http.StatusUnprocessableEntity, res)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	adminID, ok := middleware.UserIDFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	p, found, err := h.uc.Delete(c.Request().Context(), adminID, id)
	if err != nil {
		return writeError(c, err)
	}
	if !found {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found"})
	}

	return c.JSON(http.StatusOK, DeleteResponse{Message: "deleted", Product: p})
}

// ?action=&resource_id=&limit=&offset=
func (h *AdminProductHandler) auditLogs(c echo.Context) error {
	filter := repo.AuditLogFilter{Action: model.AuditAction(c.QueryParam("action"))}

	ints := []struct {
		name string
		dst  *int
	}{
		{"limit", &filter.Limit},
		{"offset", &filter.Offset},
	}
	for _, q := range ints {
		if v := c.QueryParam(q.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + q.name})
			}
			*q.dst = n
		}
	}
	if v := c.QueryParam("resource_id"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
		}
		filter.ResourceID = n
	}

	logs, err := h.uc.AuditLogs(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, AuditLogListResponse{Items: logs})
}
