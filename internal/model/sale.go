package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a single settlement event against a lot. Created atomically with
// the lot deduction; deleted only by reversal, which also removes its invoice.
type Sale struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_sales_tenant_date"`
	LotID    uuid.UUID `gorm:"type:uuid;not null;index"`

	SoldPieces int             `gorm:"not null"`
	SoldWeight decimal.Decimal `gorm:"type:decimal(10,3);not null"`

	// Price is the gross sale amount. TotalPrice is stored redundantly so
	// later reads never recompute (and drift from) the billed figure.
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Profit     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Currency   string          `gorm:"type:varchar(3);not null;default:'USD'"` // USD | EUR | GBP | INR

	Buyer    *string
	SoldDate time.Time `gorm:"not null;index:idx_sales_tenant_date"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Lot *Lot `gorm:"foreignKey:LotID"`
}
