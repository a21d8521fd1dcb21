package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// LotFilter is bound from the query string of GET /v1/lots.
type LotFilter struct {
	Search     string `form:"search"`
	Status     string `form:"status,default=all"` // pending | in_stock | partially_sold | sold | all
	CategoryID string `form:"category_id"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// LotResponse is the wire representation of a lot. Status is always the
// derived value — clients never see (or set) anything else.
type LotResponse struct {
	ID           string  `json:"id"`
	SerialNumber string  `json:"serial_number"`
	CategoryID   *string `json:"category_id,omitempty"`
	CategoryName string  `json:"category_name,omitempty"`

	TotalPieces     int             `json:"total_pieces"`
	AvailablePieces int             `json:"available_pieces"`
	TotalWeight     decimal.Decimal `json:"total_weight"`
	AvailableWeight decimal.Decimal `json:"available_weight"`
	WeightUnit      string          `json:"weight_unit"`

	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseCode  string          `json:"purchase_code"`
	SaleCode      string          `json:"sale_code"`

	Dimensions    *string `json:"dimensions,omitempty"`
	Certification *string `json:"certification,omitempty"`
	Location      *string `json:"location,omitempty"`
	Description   *string `json:"description,omitempty"`

	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type LotListResponse struct {
	Data  []LotResponse `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateLotRequest creates a lot with available = total and status pending.
type CreateLotRequest struct {
	SerialNumber string          `json:"serial_number" validate:"required,max=100"`
	CategoryID   string          `json:"category_id"   validate:"required,uuid"`
	Pieces       int             `json:"pieces"        validate:"required,min=1"`
	Weight       decimal.Decimal `json:"weight"        validate:"required,gt=0"`
	WeightUnit   string          `json:"weight_unit"   validate:"required,oneof=carat gram"`
	PurchaseCode string          `json:"purchase_code" validate:"required"`
	SaleCode     string          `json:"sale_code"     validate:"required"`

	PurchasePrice decimal.Decimal `json:"purchase_price" validate:"min=0"`
	Dimensions    *string         `json:"dimensions"`
	Certification *string         `json:"certification"`
	Location      *string         `json:"location"`
	Description   *string         `json:"description"`
}

// UpdateLotRequest corrects lot fields. Quantity corrections re-derive the
// status; the request cannot set status directly.
type UpdateLotRequest struct {
	SerialNumber *string          `json:"serial_number" validate:"omitempty,max=100"`
	CategoryID   *string          `json:"category_id"   validate:"omitempty,uuid"`
	TotalPieces  *int             `json:"total_pieces"  validate:"omitempty,min=0"`
	TotalWeight  *decimal.Decimal `json:"total_weight"  validate:"omitempty"`
	WeightUnit   *string          `json:"weight_unit"   validate:"omitempty,oneof=carat gram"`

	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	PurchaseCode  *string          `json:"purchase_code"`
	SaleCode      *string          `json:"sale_code"`
	Dimensions    *string          `json:"dimensions"`
	Certification *string          `json:"certification"`
	Location      *string          `json:"location"`
	Description   *string          `json:"description"`
}

// ─── Bulk import ─────────────────────────────────────────────────────────────

// ImportRowResult reports the outcome of a single spreadsheet row.
type ImportRowResult struct {
	Row    int    `json:"row"`
	Serial string `json:"serial,omitempty"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ImportResponse struct {
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Results []ImportRowResult `json:"results"`
}
