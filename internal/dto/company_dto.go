package dto

import "github.com/shopspring/decimal"

type CompanyRequest struct {
	CompanyName string          `json:"company_name" validate:"required,max=200"`
	TaxRate     decimal.Decimal `json:"tax_rate"     validate:"min=0,max=100"`
}

// CompanyResponse includes the derived invoice prefix so clients can preview
// the numbers the next settlement will mint.
type CompanyResponse struct {
	CompanyName   string          `json:"company_name"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	InvoicePrefix string          `json:"invoice_prefix"`
}
