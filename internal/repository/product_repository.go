package repository

import (
	"catalog/internal/domain/model"
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")

	// バックエンド（DB/Spannerなど）が読めない・書けない
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// 商品の永続化（保存・取得・削除）だけを約束。
// 実装は Products と SaveProduct/DeleteProduct を直列化し、書き途中を読ませないこと。
type ProductRepository interface {
	// ID昇順。変更がなければ何度呼んでも同じ順序。
	Products(ctx context.Context) ([]model.Product, error)

	// upsert。既存IDなら丸ごと置き換え、それ以外は新しいIDを採番して追加。
	SaveProduct(ctx context.Context, p model.Product) (model.Product, error)

	// 削除した商品を返す。無ければ ErrNotFound。
	DeleteProduct(ctx context.Context, id int64) (model.Product, error)
}

// IDで直接引けるストアだけが実装する（任意）。
type ProductFinder interface {
	FindProduct(ctx context.Context, id int64) (model.Product, error)
}

// 保存・削除の結果を外部へ流す。
type EventPublisher interface {
	Publish(ctx context.Context, event model.ProductEvent) error
}
