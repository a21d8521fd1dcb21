package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyProfile holds the per-tenant billing configuration the invoice
// composer reads: tax rate and the display prefix for invoice numbers.
// Profile management itself lives outside the engine; this is the read surface.
type CompanyProfile struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CompanyName string          `gorm:"not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InvoicePrefix derives the invoice number prefix from the first word of the
// company name. Falls back to the given default when no profile exists.
func (c *CompanyProfile) InvoicePrefix(fallback string) string {
	if c == nil || c.CompanyName == "" {
		return fallback
	}
	first, _, _ := strings.Cut(strings.TrimSpace(c.CompanyName), " ")
	if first == "" {
		return fallback
	}
	return strings.ToUpper(first)
}
