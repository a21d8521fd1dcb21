package dto

// DashboardResponse aggregates already-derived state for read-only display.
// Dashboards never mutate the ledger.
type DashboardResponse struct {
	TotalLots     int64 `json:"total_lots"`
	InStockLots   int64 `json:"in_stock_lots"`
	PartiallySold int64 `json:"partially_sold_lots"`
	SoldLots      int64 `json:"sold_lots"`
	PendingLots   int64 `json:"pending_lots"`
	SoldCount     int64 `json:"sold_count"`

	// InStockValue is Σ (numeric sale code × available weight) across lots
	// still holding stock; "-" when any lot carries a non-numeric sale code.
	InStockValue string `json:"in_stock_value"`

	RecentSales []SaleResponse `json:"recent_sales"`
}

// ─── Categories ──────────────────────────────────────────────────────────────

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
