package model

import "time"

type ProductEventType string

const (
	ProductEventSaved   ProductEventType = "product.saved"
	ProductEventDeleted ProductEventType = "product.deleted"
)

// 保存・削除が成功した後に外部へ流すイベント。
type ProductEvent struct {
	ID         string           `json:"id"`
	Type       ProductEventType `json:"type"`
	ProductID  int64            `json:"product_id"`
	Product    Product          `json:"product"`
	OccurredAt time.Time        `json:"occurred_at"`
}
