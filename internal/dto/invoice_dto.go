package dto

import "github.com/shopspring/decimal"

type InvoiceItemResponse struct {
	SaleID       string          `json:"sale_id"`
	SerialNumber string          `json:"serial_number"`
	CategoryName string          `json:"category_name,omitempty"`
	Pieces       int             `json:"pieces"`
	Weight       decimal.Decimal `json:"weight"`
	WeightUnit   string          `json:"weight_unit"`
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
}

type InvoiceResponse struct {
	ID            string  `json:"id"`
	InvoiceNumber string  `json:"invoice_number"`
	Layout        string  `json:"layout"`
	SaleID        *string `json:"sale_id,omitempty"`
	Buyer         *string `json:"buyer,omitempty"`
	Currency      string  `json:"currency"`
	InvoiceDate   string  `json:"invoice_date"`

	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	CGSTAmount  decimal.Decimal `json:"cgst_amount"`
	SGSTAmount  decimal.Decimal `json:"sgst_amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`

	Items []InvoiceItemResponse `json:"items,omitempty"`
}
