package usecase_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks
// =====================

// Products/SaveProduct/DeleteProduct だけ（ProductFinder は実装しない）
type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) Products(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	saved, _ := args.Get(0).(model.Product)
	return saved, args.Error(1)
}

func (m *ProductRepoMock) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

var _ repo.ProductRepository = (*ProductRepoMock)(nil)

// IDで引けるストア
type FinderRepoMock struct{ ProductRepoMock }

func (m *FinderRepoMock) FindProduct(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

var _ repo.ProductFinder = (*FinderRepoMock)(nil)

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, ev model.ProductEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// =====================
// helper
// =====================

var errDBDown = errors.New("db down")

func storageDown() error {
	return errors.Join(repo.ErrStorageUnavailable, errDBDown)
}

func product(id int64, name, category string) model.Product {
	return model.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.NewFromInt(10),
		Category: category,
	}
}

// P1..Pn（ID 1..n）
func productsN(n int) []model.Product {
	out := make([]model.Product, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, product(int64(i), "P"+strconv.Itoa(i), "Cat"))
	}
	return out
}

func names(ps []model.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
