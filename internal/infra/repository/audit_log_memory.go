package repository

import (
	"context"
	"sync"

	"catalog/internal/domain/model"
	repo "catalog/internal/repository"
)

type AuditLogMemoryRepository struct {
	mu     sync.Mutex
	logs   []model.AuditLog
	lastID int64
}

func NewAuditLogMemoryRepository() *AuditLogMemoryRepository {
	return &AuditLogMemoryRepository{}
}

func (r *AuditLogMemoryRepository) Create(ctx context.Context, log model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	log.ID = r.lastID
	r.logs = append(r.logs, log)
	return nil
}

// 新しい順
func (r *AuditLogMemoryRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit, offset := normalizeAuditWindow(filter)

	out := []model.AuditLog{}
	skipped := 0
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		l := r.logs[i]
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceID > 0 && l.ResourceID != filter.ResourceID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
