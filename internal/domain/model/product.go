package model

import (
	"github.com/shopspring/decimal"
)

// 商品。IDはストアが採番し、再利用しない。
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
}

// IDが0なら未保存（新規）
func (p Product) IsNew() bool {
	return p.ID == 0
}
