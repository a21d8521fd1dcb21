package service

import (
	"context"
	"strings"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"
	"github.com/lashkaryadi/kuber-be/internal/repository"

	"github.com/google/uuid"
)

// CategoryService manages the tenant-scoped category list lots refer to.
type CategoryService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]dto.CategoryResponse, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type categoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) Create(ctx context.Context, tenantID uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("category name is required")
	}

	cat := &model.Category{TenantID: tenantID, Name: name}
	if err := s.categories.Create(ctx, cat); err != nil {
		return nil, err
	}
	return &dto.CategoryResponse{ID: cat.ID.String(), Name: cat.Name}, nil
}

func (s *categoryService) List(ctx context.Context, tenantID uuid.UUID) ([]dto.CategoryResponse, error) {
	cats, err := s.categories.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CategoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, dto.CategoryResponse{ID: c.ID.String(), Name: c.Name})
	}
	return resp, nil
}

func (s *categoryService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.categories.Delete(ctx, tenantID, id)
}
