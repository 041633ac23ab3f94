package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"catalog/internal/domain/model"
	"catalog/internal/handler"
	infraRepo "catalog/internal/infra/repository"
	repo "catalog/internal/repository"
	"catalog/internal/usecase"
	"catalog/internal/validator"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testApp struct {
	e        *echo.Echo
	products *infraRepo.ProductMemoryRepository
	audit    *infraRepo.AuditLogMemoryRepository
}

func seed(n int) []model.Product {
	out := make([]model.Product, 0, n)
	for i := 1; i <= n; i++ {
		cat := "Soccer"
		if i%2 == 1 {
			cat = "Chess"
		}
		out = append(out, model.Product{
			ID:       int64(i),
			Name:     "P" + strconv.Itoa(i),
			Price:    decimal.NewFromInt(int64(i * 10)),
			Category: cat,
		})
	}
	return out
}

func newTestApp(t *testing.T, products repo.ProductRepository) *testApp {
	t.Helper()

	app := &testApp{e: echo.New(), audit: infraRepo.NewAuditLogMemoryRepository()}
	if products == nil {
		app.products = infraRepo.NewProductMemoryRepository(seed(5)...)
		products = app.products
	}

	catalogUC, err := usecase.NewCatalogUsecase(products, 3)
	require.NoError(t, err)
	adminUC := usecase.NewAdminProductUsecase(products, usecase.WithAuditLog(app.audit))

	handler.NewProductHandler(catalogUC).RegisterRoutes(app.e)
	handler.NewAdminProductHandler(adminUC, validator.NewProductValidator()).RegisterRoutes(app.e, testSecret)
	return app
}

func token(t *testing.T, sub int64, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (a *testApp) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func productNames(ps []model.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

// 常に落ちるストア
type downRepo struct{}

func (downRepo) Products(context.Context) ([]model.Product, error) {
	return nil, repo.ErrStorageUnavailable
}

func (downRepo) SaveProduct(context.Context, model.Product) (model.Product, error) {
	return model.Product{}, repo.ErrStorageUnavailable
}

func (downRepo) DeleteProduct(context.Context, int64) (model.Product, error) {
	return model.Product{}, repo.ErrStorageUnavailable
}
