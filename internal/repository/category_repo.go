package repository

import (
	"context"
	"errors"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	List(ctx context.Context, tenantID uuid.UUID) ([]model.Category, error)
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Category, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepo{db: db} }

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return apierror.Validation("category name already exists")
		}
		return err
	}
	return nil
}

func (r *categoryRepo) List(ctx context.Context, tenantID uuid.UUID) ([]model.Category, error) {
	var cats []model.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name ASC").
		Find(&cats).Error
	return cats, err
}

func (r *categoryRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("category not found")
	}
	return &c, err
}

func (r *categoryRepo) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("category not found")
	}
	return &c, err
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&model.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.NotFound("category not found")
	}
	return nil
}
