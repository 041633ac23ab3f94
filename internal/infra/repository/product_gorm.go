package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// DBエラーは ErrStorageUnavailable で包む
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", repo.ErrStorageUnavailable, op, err)
}

// 全商品をID昇順で返す
func (r *ProductGormRepository) Products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindProduct(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, storageErr("find product", err)
	}
	return p, nil
}

// 商品のupsert。存在確認と書き込みを同じTxで行う。
func (r *ProductGormRepository) SaveProduct(ctx context.Context, p model.Product) (model.Product, error) {
	// 列の桁に合わせて返す値もそろえる
	p.Price = p.Price.Round(2)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !p.IsNew() {
			var n int64
			if err := tx.Model(&model.Product{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				//全カラム置き換え（部分マージはしない）
				return tx.Save(&p).Error
			}
			//知らないIDは新規扱い
			p.ID = 0
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return model.Product{}, storageErr("save product", err)
	}
	return p, nil
}

// 商品削除
func (r *ProductGormRepository) DeleteProduct(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Product{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, storageErr("delete product", err)
	}
	return p, nil
}
