package service

import (
	"context"
	"strings"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"
	"github.com/lashkaryadi/kuber-be/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyService exposes the tenant billing configuration the invoice
// composer reads.
type CompanyService interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*dto.CompanyResponse, error)
	Upsert(ctx context.Context, tenantID uuid.UUID, req dto.CompanyRequest) (*dto.CompanyResponse, error)
}

type companyService struct {
	companies     repository.CompanyRepository
	defaultPrefix string
}

func NewCompanyService(companies repository.CompanyRepository, defaultPrefix string) CompanyService {
	return &companyService{companies: companies, defaultPrefix: defaultPrefix}
}

func (s *companyService) Get(ctx context.Context, tenantID uuid.UUID) (*dto.CompanyResponse, error) {
	company, err := s.companies.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resp := &dto.CompanyResponse{
		TaxRate:       decimal.Zero,
		InvoicePrefix: company.InvoicePrefix(s.defaultPrefix),
	}
	if company != nil {
		resp.CompanyName = company.CompanyName
		resp.TaxRate = company.TaxRate
	}
	return resp, nil
}

func (s *companyService) Upsert(ctx context.Context, tenantID uuid.UUID, req dto.CompanyRequest) (*dto.CompanyResponse, error) {
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return nil, apierror.Validation("company name is required")
	}

	company := &model.CompanyProfile{
		TenantID:    tenantID,
		CompanyName: name,
		TaxRate:     req.TaxRate,
	}
	if err := s.companies.Upsert(ctx, company); err != nil {
		return nil, err
	}
	return &dto.CompanyResponse{
		CompanyName:   company.CompanyName,
		TaxRate:       company.TaxRate,
		InvoicePrefix: company.InvoicePrefix(s.defaultPrefix),
	}, nil
}
