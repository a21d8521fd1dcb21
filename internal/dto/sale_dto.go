package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Search    string `form:"search"`
	SortBy    string `form:"sort_by,default=created_at"` // created_at | sold_date | price
	SortOrder string `form:"sort_order,default=desc"`    // asc | desc
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=10" validate:"min=1,max=100"`
}

// AuditFilter is bound from the query string of GET /v1/audit.
type AuditFilter struct {
	Action string `form:"action"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type AuditEntryResponse struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

type AuditListResponse struct {
	Data  []AuditEntryResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type SaleResponse struct {
	ID    string `json:"id"`
	LotID string `json:"lot_id"`

	SerialNumber string `json:"serial_number,omitempty"`
	CategoryName string `json:"category_name,omitempty"`

	SoldPieces int             `json:"sold_pieces"`
	SoldWeight decimal.Decimal `json:"sold_weight"`

	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CostPrice  decimal.Decimal `json:"cost_price"`
	Profit     decimal.Decimal `json:"profit"`
	Currency   string          `json:"currency"`

	Buyer    *string `json:"buyer,omitempty"`
	SoldDate string  `json:"sold_date"`

	// Remaining lot state after settlement.
	LotStatus          string          `json:"lot_status"`
	LotAvailablePieces int             `json:"lot_available_pieces"`
	LotAvailableWeight decimal.Decimal `json:"lot_available_weight"`

	InvoiceID     string `json:"invoice_id,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`

	CreatedAt string `json:"created_at"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SettleSaleRequest records a partial sale: the requested quantities must not
// exceed the lot's available pieces and weight.
type SettleSaleRequest struct {
	LotID      string          `json:"lot_id"      validate:"required,uuid"`
	SoldPieces int             `json:"sold_pieces" validate:"required,min=1"`
	SoldWeight decimal.Decimal `json:"sold_weight" validate:"required,gt=0"`
	Price      decimal.Decimal `json:"price"       validate:"min=0"`
	Currency   string          `json:"currency"    validate:"required,oneof=USD EUR GBP INR"`
	Buyer      *string         `json:"buyer"       validate:"omitempty,max=200"`
	SoldDate   time.Time       `json:"sold_date"   validate:"required"`
}

// SettleFullSaleRequest sells the lot's entire remaining quantity.
type SettleFullSaleRequest struct {
	LotID    string          `json:"lot_id"    validate:"required,uuid"`
	Price    decimal.Decimal `json:"price"     validate:"min=0"`
	Currency string          `json:"currency"  validate:"required,oneof=USD EUR GBP INR"`
	Buyer    *string         `json:"buyer"     validate:"omitempty,max=200"`
	SoldDate time.Time       `json:"sold_date" validate:"required"`
}

// UpdateSaleRequest edits price, buyer, and date of a settled sale; the
// change propagates to the invoice and is snapshotted in the audit trail.
type UpdateSaleRequest struct {
	Price    decimal.Decimal `json:"price"     validate:"min=0"`
	Buyer    *string         `json:"buyer"     validate:"omitempty,max=200"`
	SoldDate time.Time       `json:"sold_date" validate:"required"`
}
