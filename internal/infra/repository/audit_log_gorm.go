package repository

import (
	"context"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return storageErr("create audit log", err)
	}
	return nil
}

func (r *auditLogGormRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{}).
		Where("resource_type = ?", model.AuditResourceProduct)

	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.ResourceID > 0 {
		q = q.Where("resource_id = ?", filter.ResourceID)
	}

	limit, offset := normalizeAuditWindow(filter)

	var logs []model.AuditLog
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, storageErr("list audit logs", err)
	}
	return logs, nil
}

// limit は 1〜200、既定 50
func normalizeAuditWindow(f repo.AuditLogFilter) (int, int) {
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = 50
	case limit > 200:
		limit = 200
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
