package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotStatus is always derived from the lot's quantities — it is never accepted
// from external input. See DeriveStatus.
type LotStatus string

const (
	StatusPending       LotStatus = "pending"
	StatusInStock       LotStatus = "in_stock"
	StatusPartiallySold LotStatus = "partially_sold"
	StatusSold          LotStatus = "sold"
)

// Lot represents a physical batch of fungible goods (a gemstone parcel).
// Total* quantities record what the lot was created with; Available* shrink
// on settlement and grow back on reversal. Available never exceeds Total.
type Lot struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_lots_tenant_serial"`
	SerialNumber string     `gorm:"not null;uniqueIndex:idx_lots_tenant_serial"`
	CategoryID   *uuid.UUID `gorm:"type:uuid;index"`

	TotalPieces     int             `gorm:"not null"`
	AvailablePieces int             `gorm:"not null"`
	TotalWeight     decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	AvailableWeight decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	WeightUnit      string          `gorm:"not null;default:'carat'"` // carat | gram

	// PurchasePrice is the cost basis per weight unit, used to compute
	// sale profit.
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PurchaseCode  string          `gorm:"not null"`
	// SaleCode is the asking price per weight unit, encoded by the merchant.
	SaleCode string `gorm:"not null"`

	Dimensions    *string
	Certification *string
	Location      *string
	Description   *string

	Status LotStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	// IsDeleted soft-deletes the lot once sales exist against it; rows are
	// never physically removed.
	IsDeleted bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
}

// DeriveStatus implements the status invariant: sold when either axis is
// depleted, partially_sold when some quantity has left the lot, otherwise the
// lot is untouched — in_stock, or still pending if stock was never confirmed.
// This is the single source of truth; callers must re-derive after every
// quantity mutation, including corrections to the total quantities.
func DeriveStatus(current LotStatus, totalPieces, availablePieces int, totalWeight, availableWeight decimal.Decimal) LotStatus {
	if availablePieces <= 0 || availableWeight.LessThanOrEqual(decimal.Zero) {
		return StatusSold
	}
	if availablePieces < totalPieces || availableWeight.LessThan(totalWeight) {
		return StatusPartiallySold
	}
	if current == StatusPending {
		return StatusPending
	}
	return StatusInStock
}

// RecomputeStatus re-derives Status from the lot's current quantities.
func (l *Lot) RecomputeStatus() {
	l.Status = DeriveStatus(l.Status, l.TotalPieces, l.AvailablePieces, l.TotalWeight, l.AvailableWeight)
}
