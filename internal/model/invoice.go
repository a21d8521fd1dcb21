package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLayout discriminates the two invoice shapes that coexist in the data:
// the legacy one-sale-per-invoice shape referencing the sale directly, and the
// newer shape carrying explicit line items. Reversal must search both.
type InvoiceLayout string

const (
	LayoutSaleRef   InvoiceLayout = "sale_ref"
	LayoutLineItems InvoiceLayout = "line_items"
)

// Invoice is the billing document derived from a settled sale. Its number is
// unique per tenant and never reused, even after the invoice is deleted by a
// reversal — the sequence never fills gaps.
type Invoice struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID      uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_invoices_tenant_number"`
	InvoiceNumber string        `gorm:"not null;uniqueIndex:idx_invoices_tenant_number"`
	Layout        InvoiceLayout `gorm:"type:varchar(15);not null;default:'line_items'"`

	// SaleID is set on sale_ref layout invoices only; line_items invoices
	// reference their sales through Items.
	SaleID *uuid.UUID `gorm:"type:uuid;index"`

	Buyer       *string
	Currency    string    `gorm:"type:varchar(3);not null;default:'USD'"`
	InvoiceDate time.Time `gorm:"not null"`

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxRate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	// The tax is split into two equal halves (CGST/SGST intrastate layout).
	CGSTAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:cgst_amount"`
	SGSTAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0;column:sgst_amount"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvoiceItem is one line of a line_items layout invoice, denormalizing the
// lot details at settlement time so the invoice stays stable if the lot is
// later edited.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index"`

	SerialNumber string `gorm:"not null"`
	CategoryName string
	Pieces       int             `gorm:"not null"`
	Weight       decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	WeightUnit   string          `gorm:"not null;default:'carat'"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
