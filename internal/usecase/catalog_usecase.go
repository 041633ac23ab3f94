package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"catalog/internal/domain/model"
	"catalog/internal/metrics"
	"catalog/internal/pagination"
	repo "catalog/internal/repository"
)

// 起動時の設定ミス（ページサイズ0以下など）。リクエスト単位では返さない。
var ErrInvalidConfiguration = errors.New("invalid configuration")

// 一覧画面に渡す1ページ分
type ProductPage struct {
	Items    []model.Product `json:"items"`
	Paging   pagination.Info `json:"paging"`
	Category string          `json:"category,omitempty"`
}

// 公開側の商品一覧。読み取り専用でストアを書き換えない。
type CatalogUsecase struct {
	products        repo.ProductRepository
	pageSize        int
	caseInsensitive bool
	metrics         *metrics.Metrics
}

type CatalogOption func(*CatalogUsecase)

// カテゴリ一致を大文字小文字を無視して判定する（既定は完全一致）
func WithCaseInsensitiveCategory() CatalogOption {
	return func(u *CatalogUsecase) { u.caseInsensitive = true }
}

func WithCatalogMetrics(m *metrics.Metrics) CatalogOption {
	return func(u *CatalogUsecase) { u.metrics = m }
}

// DI。pageSize <= 0 は ErrInvalidConfiguration。
func NewCatalogUsecase(products repo.ProductRepository, pageSize int, opts ...CatalogOption) (*CatalogUsecase, error) {
	if products == nil {
		return nil, fmt.Errorf("%w: product repository is required", ErrInvalidConfiguration)
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be > 0, got %d", ErrInvalidConfiguration, pageSize)
	}
	u := &CatalogUsecase{products: products, pageSize: pageSize}
	for _, o := range opts {
		o(u)
	}
	return u, nil
}

func (u *CatalogUsecase) PageSize() int {
	return u.pageSize
}

// category が空なら全件。件数はフィルタ後の集合で数える。
func (u *CatalogUsecase) List(ctx context.Context, category string, page int) (ProductPage, error) {
	all, err := u.products.Products(ctx)
	if err != nil {
		return ProductPage{}, err
	}

	filtered := all
	if category != "" {
		filtered = make([]model.Product, 0, len(all))
		for _, p := range all {
			if u.categoryMatches(p.Category, category) {
				filtered = append(filtered, p)
			}
		}
	}

	// ストアはID昇順を約束しているが、ページ境界がずれないよう念のため揃える
	if !slices.IsSortedFunc(filtered, compareByID) {
		filtered = slices.Clone(filtered)
		slices.SortStableFunc(filtered, compareByID)
	}

	items, info := pagination.Paginate(filtered, page, u.pageSize)
	u.metrics.ObserveList(category != "")

	return ProductPage{
		Items:    items,
		Paging:   info,
		Category: category,
	}, nil
}

// 重複なし・昇順のカテゴリ一覧（ナビゲーション用）
func (u *CatalogUsecase) Categories(ctx context.Context) ([]string, error) {
	all, err := u.products.Products(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0)
	for _, p := range all {
		if p.Category != "" {
			out = append(out, p.Category)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// 公開側の商品詳細。見つからなければ false。
func (u *CatalogUsecase) Product(ctx context.Context, id int64) (model.Product, bool, error) {
	return findProduct(ctx, u.products, id)
}

func (u *CatalogUsecase) categoryMatches(got, want string) bool {
	if u.caseInsensitive {
		return strings.EqualFold(got, want)
	}
	return got == want
}

func compareByID(a, b model.Product) int {
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// ストアがIDで引けるならそれを、無ければ全件から探す。
func findProduct(ctx context.Context, products repo.ProductRepository, id int64) (model.Product, bool, error) {
	if f, ok := products.(repo.ProductFinder); ok {
		p, err := f.FindProduct(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, false, nil
		}
		if err != nil {
			return model.Product{}, false, err
		}
		return p, true, nil
	}

	all, err := products.Products(ctx)
	if err != nil {
		return model.Product{}, false, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, true, nil
		}
	}
	return model.Product{}, false, nil
}
