package repository

import (
	"context"
	"errors"

	"github.com/lashkaryadi/kuber-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompanyRepository exposes the tenant billing configuration the invoice
// composer reads. A missing profile is not an error: the composer falls back
// to a zero tax rate and the default prefix.
type CompanyRepository interface {
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*model.CompanyProfile, error)
	Upsert(ctx context.Context, p *model.CompanyProfile) error
}

type companyRepo struct{ db *gorm.DB }

func NewCompanyRepository(db *gorm.DB) CompanyRepository { return &companyRepo{db: db} }

func (r *companyRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *companyRepo) Upsert(ctx context.Context, p *model.CompanyProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"company_name", "tax_rate", "updated_at"}),
	}).Create(p).Error
}
