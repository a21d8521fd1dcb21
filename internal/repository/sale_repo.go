package repository

import (
	"context"
	"errors"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Sale, error)
	// FindByLotID returns any sale against the lot, used by the full-sale
	// path to keep the legacy one-sale-per-lot rule.
	FindByLotID(ctx context.Context, tenantID, lotID uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error)
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]model.Sale, error)
	Update(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	Delete(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) error
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.Sale, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Lot").Preload("Lot.Category").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("sale not found")
	}
	return &s, err
}

func (r *saleRepo) FindByLotID(ctx context.Context, tenantID, lotID uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Where("lot_id = ? AND tenant_id = ?", lotID, tenantID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("sale not found")
	}
	return &s, err
}

func (r *saleRepo) List(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("sales.tenant_id = ?", tenantID)

	if filter.Search != "" {
		// Buyer match, or serial match through the lot join.
		pattern := "%" + filter.Search + "%"
		q = q.Joins("LEFT JOIN lots ON lots.id = sales.lot_id").
			Where("sales.buyer ILIKE ? OR lots.serial_number ILIKE ?", pattern, pattern)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "sales.created_at"
	switch filter.SortBy {
	case "sold_date":
		sortBy = "sales.sold_date"
	case "price":
		sortBy = "sales.price"
	}
	order := sortBy + " DESC"
	if filter.SortOrder == "asc" {
		order = sortBy + " ASC"
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Lot").Preload("Lot.Category").
		Order(order).
		Limit(filter.Limit).Offset(offset).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) ListAll(ctx context.Context, tenantID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Preload("Lot").Preload("Lot.Category").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) Update(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(s).Error
}

func (r *saleRepo) Delete(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.Sale{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.NotFound("sale not found")
	}
	return nil
}

func (r *saleRepo) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("tenant_id = ?", tenantID).
		Count(&n).Error
	return n, err
}

func (r *saleRepo) Recent(ctx context.Context, tenantID uuid.UUID, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Preload("Lot").Preload("Lot.Category").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}
