package repository

import (
	"context"
	"slices"
	"sync"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"
)

// メモリ上の商品ストア。テストと STORE=memory で使う。
type ProductMemoryRepository struct {
	mu       sync.RWMutex
	products map[int64]model.Product
	lastID   int64
}

// DI。seed のIDが0なら採番する。
func NewProductMemoryRepository(seed ...model.Product) *ProductMemoryRepository {
	r := &ProductMemoryRepository{products: make(map[int64]model.Product, len(seed))}
	for _, p := range seed {
		if p.ID > r.lastID {
			r.lastID = p.ID
		}
	}
	for _, p := range seed {
		if p.ID == 0 {
			r.lastID++
			p.ID = r.lastID
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductMemoryRepository) Products(ctx context.Context) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Product) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *ProductMemoryRepository) FindProduct(ctx context.Context, id int64) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *ProductMemoryRepository) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 既存IDなら置き換え、知らないIDは新規扱い
	if _, ok := r.products[p.ID]; !ok {
		r.lastID++
		p.ID = r.lastID
	}
	r.products[p.ID] = p
	return p, nil
}

func (r *ProductMemoryRepository) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	delete(r.products, id)
	return p, nil
}
