package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	productsCacheKey      = "catalog:products:v1"
	productsGenerationKey = "catalog:products:v1:gen"
)

// 任意のストアの前に置く Products() スナップショットのキャッシュ。
// スナップショットは世代番号ごとのキーに置き、書き込みは inner の成功後に世代を INCR する。
// 古い世代で読んだスナップショットは新しい世代のキーには入らない。
// Redis が落ちていても inner にフォールバックするだけでエラーにはしない。
type CachedProductRepository struct {
	inner  repo.ProductRepository
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// DI
func NewCachedProductRepository(inner repo.ProductRepository, client *redis.Client, ttl time.Duration, log *slog.Logger) *CachedProductRepository {
	if log == nil {
		log = slog.Default()
	}
	return &CachedProductRepository{inner: inner, client: client, ttl: ttl, log: log}
}

func snapshotKey(gen int64) string {
	return productsCacheKey + ":" + strconv.FormatInt(gen, 10)
}

func (r *CachedProductRepository) Products(ctx context.Context) ([]model.Product, error) {
	// inner を読む前に世代を確定させる
	gen, err := r.client.Get(ctx, productsGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		gen, err = 0, nil
	}
	if err != nil {
		r.log.WarnContext(ctx, "redis get failed", "key", productsGenerationKey, "error", err)
		return r.inner.Products(ctx)
	}
	key := snapshotKey(gen)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []model.Product
		if jerr := json.Unmarshal(raw, &cached); jerr == nil {
			return cached, nil
		}
		r.log.WarnContext(ctx, "product cache is corrupted", "key", key)
	case !errors.Is(err, redis.Nil):
		r.log.WarnContext(ctx, "redis get failed", "key", key, "error", err)
	}

	products, err := r.inner.Products(ctx)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(products); jerr == nil {
		if serr := r.client.Set(ctx, key, data, r.ttl).Err(); serr != nil {
			r.log.WarnContext(ctx, "redis set failed", "key", key, "error", serr)
		}
	}
	return products, nil
}

// innerがIDで引けるならそちらを使う（キャッシュしない）
func (r *CachedProductRepository) FindProduct(ctx context.Context, id int64) (model.Product, error) {
	if f, ok := r.inner.(repo.ProductFinder); ok {
		return f.FindProduct(ctx, id)
	}
	products, err := r.Products(ctx)
	if err != nil {
		return model.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (r *CachedProductRepository) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
	saved, err := r.inner.SaveProduct(ctx, p)
	if err != nil {
		return model.Product{}, err
	}
	r.invalidate(ctx)
	return saved, nil
}

func (r *CachedProductRepository) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	deleted, err := r.inner.DeleteProduct(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	r.invalidate(ctx)
	return deleted, nil
}

// 世代を進める。古い世代のキーは TTL で消える。
func (r *CachedProductRepository) invalidate(ctx context.Context) {
	if err := r.client.Incr(ctx, productsGenerationKey).Err(); err != nil {
		r.log.WarnContext(ctx, "redis incr failed", "key", productsGenerationKey, "error", err)
	}
}
