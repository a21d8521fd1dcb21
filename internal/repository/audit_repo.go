package repository

import (
	"context"

	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRepository is append-only: entries are never mutated or deleted, so the
// interface deliberately has no Update or Delete.
type AuditRepository interface {
	Append(ctx context.Context, tx *gorm.DB, e *model.AuditEntry) error
	List(ctx context.Context, tenantID uuid.UUID, filter dto.AuditFilter) ([]model.AuditEntry, int64, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Append(ctx context.Context, tx *gorm.DB, e *model.AuditEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(e).Error
}

func (r *auditRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.AuditFilter) ([]model.AuditEntry, int64, error) {
	var entries []model.AuditEntry
	var total int64

	q := r.db.WithContext(ctx).Model(&model.AuditEntry{}).Where("tenant_id = ?", tenantID)
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}
