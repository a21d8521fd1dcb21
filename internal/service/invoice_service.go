package service

import (
	"context"
	"errors"
	"time"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/model"
	"github.com/lashkaryadi/kuber-be/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaxBreakdown is the result of the pure invoice totals computation.
// The tax rate is split into two equal components (CGST/SGST, intrastate).
type TaxBreakdown struct {
	Subtotal    decimal.Decimal
	TaxRate     decimal.Decimal
	CGSTAmount  decimal.Decimal
	SGSTAmount  decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// ComposeTotals derives invoice totals from a sale price and tenant tax rate.
// Pure: both the eager settlement path and the lazy regeneration path call
// this, so the two can never diverge.
func ComposeTotals(price, taxRate decimal.Decimal) TaxBreakdown {
	half := taxRate.Div(decimal.NewFromInt(2))
	component := price.Mul(half).Div(hundred).Round(2)
	tax := component.Add(component)
	return TaxBreakdown{
		Subtotal:    price,
		TaxRate:     taxRate,
		CGSTAmount:  component,
		SGSTAmount:  component,
		TaxAmount:   tax,
		TotalAmount: price.Add(tax),
	}
}

// InvoiceService composes invoices for settled sales: eagerly during
// settlement and lazily when a sale is read that has none (self-healing).
type InvoiceService interface {
	// CreateForSettlement builds a line_items layout invoice inside the
	// settlement transaction. Any sequence failure aborts the settlement.
	CreateForSettlement(ctx context.Context, tx *gorm.DB, sale *model.Sale, lot *model.Lot) (*model.Invoice, error)
	// GetBySale returns the sale's invoice, creating one in the legacy
	// sale_ref layout when missing.
	GetBySale(ctx context.Context, tenantID, saleID uuid.UUID) (*dto.InvoiceResponse, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	invoices      repository.InvoiceRepository
	sales         repository.SaleRepository
	sequences     repository.SequenceRepository
	companies     repository.CompanyRepository
	defaultPrefix string
}

func NewInvoiceService(
	invoices repository.InvoiceRepository,
	sales repository.SaleRepository,
	sequences repository.SequenceRepository,
	companies repository.CompanyRepository,
	defaultPrefix string,
) InvoiceService {
	return &invoiceService{
		invoices:      invoices,
		sales:         sales,
		sequences:     sequences,
		companies:     companies,
		defaultPrefix: defaultPrefix,
	}
}

// nextNumber obtains a formatted invoice number for the tenant. The counter
// increment is the only source of numbers; a failure here must fail the whole
// operation rather than fall back to a read-then-write.
func (s *invoiceService) nextNumber(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, prefix string, at time.Time) (string, error) {
	year := at.Year()
	value, err := s.sequences.Next(ctx, tx, tenantID, year)
	if err != nil {
		return "", apierror.SequenceUnavailable(err)
	}
	return repository.FormatInvoiceNumber(prefix, year, value), nil
}

func (s *invoiceService) taxRateAndPrefix(ctx context.Context, tenantID uuid.UUID) (decimal.Decimal, string, error) {
	company, err := s.companies.FindByTenant(ctx, tenantID)
	if err != nil {
		return decimal.Zero, "", err
	}
	rate := decimal.Zero
	if company != nil {
		rate = company.TaxRate
	}
	return rate, company.InvoicePrefix(s.defaultPrefix), nil
}

func (s *invoiceService) CreateForSettlement(ctx context.Context, tx *gorm.DB, sale *model.Sale, lot *model.Lot) (*model.Invoice, error) {
	taxRate, prefix, err := s.taxRateAndPrefix(ctx, sale.TenantID)
	if err != nil {
		return nil, err
	}

	number, err := s.nextNumber(ctx, tx, sale.TenantID, prefix, time.Now())
	if err != nil {
		return nil, err
	}

	totals := ComposeTotals(sale.Price, taxRate)
	categoryName := ""
	if lot.Category != nil {
		categoryName = lot.Category.Name
	}

	inv := &model.Invoice{
		TenantID:      sale.TenantID,
		InvoiceNumber: number,
		Layout:        model.LayoutLineItems,
		Buyer:         sale.Buyer,
		Currency:      sale.Currency,
		InvoiceDate:   time.Now(),
		Subtotal:      totals.Subtotal,
		TaxRate:       totals.TaxRate,
		CGSTAmount:    totals.CGSTAmount,
		SGSTAmount:    totals.SGSTAmount,
		TaxAmount:     totals.TaxAmount,
		TotalAmount:   totals.TotalAmount,
		Items: []model.InvoiceItem{{
			SaleID:       sale.ID,
			SerialNumber: lot.SerialNumber,
			CategoryName: categoryName,
			Pieces:       sale.SoldPieces,
			Weight:       sale.SoldWeight,
			WeightUnit:   lot.WeightUnit,
			Price:        sale.Price,
			Amount:       sale.Price,
		}},
	}

	if err := s.invoices.Create(ctx, tx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) GetBySale(ctx context.Context, tenantID, saleID uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoices.FindBySaleID(ctx, tenantID, saleID)
	if err == nil {
		return invoiceToResponse(inv), nil
	}
	if apierror.KindOf(err) != apierror.KindNotFound {
		return nil, err
	}

	// Self-healing read path: the sale predates eager invoicing. Compose
	// the invoice now with the exact formula the eager path uses.
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}

	taxRate, prefix, err := s.taxRateAndPrefix(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Number and insert commit together: when a concurrent read wins the
	// race, the unique sale reference fails this insert, the rollback
	// returns the number, and we serve the winner's invoice instead.
	txErr := runTx(ctx, s.invoices.DB(), func(tx *gorm.DB) error {
		number, err := s.nextNumber(ctx, tx, tenantID, prefix, time.Now())
		if err != nil {
			return err
		}

		totals := ComposeTotals(sale.Price, taxRate)
		saleRef := sale.ID
		inv = &model.Invoice{
			TenantID:      tenantID,
			InvoiceNumber: number,
			Layout:        model.LayoutSaleRef,
			SaleID:        &saleRef,
			Buyer:         sale.Buyer,
			Currency:      sale.Currency,
			InvoiceDate:   time.Now(),
			Subtotal:      totals.Subtotal,
			TaxRate:       totals.TaxRate,
			CGSTAmount:    totals.CGSTAmount,
			SGSTAmount:    totals.SGSTAmount,
			TaxAmount:     totals.TaxAmount,
			TotalAmount:   totals.TotalAmount,
		}
		return s.invoices.Create(ctx, tx, inv)
	})
	if errors.Is(txErr, repository.ErrSaleInvoiceExists) {
		existing, ferr := s.invoices.FindBySaleID(ctx, tenantID, saleID)
		if ferr != nil {
			return nil, ferr
		}
		return invoiceToResponse(existing), nil
	}
	if txErr != nil {
		return nil, txErr
	}
	return invoiceToResponse(inv), nil
}

func (s *invoiceService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.invoices.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return invoiceToResponse(inv), nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		Layout:        string(inv.Layout),
		Buyer:         inv.Buyer,
		Currency:      inv.Currency,
		InvoiceDate:   inv.InvoiceDate.Format(time.RFC3339),
		Subtotal:      inv.Subtotal,
		TaxRate:       inv.TaxRate,
		CGSTAmount:    inv.CGSTAmount,
		SGSTAmount:    inv.SGSTAmount,
		TaxAmount:     inv.TaxAmount,
		TotalAmount:   inv.TotalAmount,
	}
	if inv.SaleID != nil {
		id := inv.SaleID.String()
		resp.SaleID = &id
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			SaleID:       item.SaleID.String(),
			SerialNumber: item.SerialNumber,
			CategoryName: item.CategoryName,
			Pieces:       item.Pieces,
			Weight:       item.Weight,
			WeightUnit:   item.WeightUnit,
			Price:        item.Price,
			Amount:       item.Amount,
		})
	}
	return resp
}
