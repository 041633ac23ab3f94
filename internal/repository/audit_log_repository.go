package repository

import (
	"context"

	"catalog/internal/domain/model"
)

// 監査ログの絞り込み条件。ゼロ値なら条件なし。
type AuditLogFilter struct {
	Action     model.AuditAction
	ResourceID int64
	Limit      int
	Offset     int
}

// 商品操作の監査ログを保存・一覧取得する。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
