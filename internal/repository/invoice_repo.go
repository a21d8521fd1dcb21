package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSaleInvoiceExists reports that a sale already has an invoice. The
// uq_invoices_sale partial index raises it when two lazy compositions race;
// the caller re-reads instead of failing.
var ErrSaleInvoiceExists = errors.New("an invoice already exists for this sale")

type InvoiceRepository interface {
	// Create returns ErrSaleInvoiceExists when the sale reference collides
	// with an invoice another writer committed first.
	Create(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error)
	// FindBySaleID locates the invoice for a sale in either layout: a direct
	// sale reference or an embedded line item.
	FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) (*model.Invoice, error)
	// DeleteBySaleID removes the sale's invoice regardless of layout.
	// Deleting nothing is not an error — reversal of a sale that never got
	// an invoice must still clean up the rest.
	DeleteBySaleID(ctx context.Context, tx *gorm.DB, tenantID, saleID uuid.UUID) error
	// UpdateForSale propagates price/buyer edits into the invoice, handling
	// both layouts.
	UpdateForSale(ctx context.Context, tx *gorm.DB, tenantID, saleID uuid.UUID, inv *model.Invoice) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) Create(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(inv).Error; err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "uq_invoices_sale") {
				return ErrSaleInvoiceExists
			}
			// An invoice number collision means the sequence was bypassed
			// or the counter state is corrupt.
			return apierror.Integrity("invoice number already in use")
		}
		return err
	}
	return nil
}

func (r *invoiceRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("invoice not found")
	}
	return &inv, err
}

func (r *invoiceRepo) FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ?", tenantID).
		Where("sale_id = ? OR id IN (SELECT invoice_id FROM invoice_items WHERE sale_id = ?)", saleID, saleID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("invoice not found")
	}
	return &inv, err
}

func (r *invoiceRepo) DeleteBySaleID(ctx context.Context, tx *gorm.DB, tenantID, saleID uuid.UUID) error {
	if tx == nil {
		tx = r.db
	}
	var inv model.Invoice
	err := tx.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("sale_id = ? OR id IN (SELECT invoice_id FROM invoice_items WHERE sale_id = ?)", saleID, saleID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := tx.WithContext(ctx).Where("invoice_id = ?", inv.ID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(&model.Invoice{}, inv.ID).Error
}

func (r *invoiceRepo) UpdateForSale(ctx context.Context, tx *gorm.DB, tenantID, saleID uuid.UUID, inv *model.Invoice) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Save(inv).Error; err != nil {
		return err
	}
	// Line-item layout also carries the price on the item row.
	return tx.WithContext(ctx).Model(&model.InvoiceItem{}).
		Where("invoice_id = ? AND sale_id = ?", inv.ID, saleID).
		Updates(map[string]interface{}{
			"price":  inv.Subtotal,
			"amount": inv.Subtotal,
		}).Error
}
