package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	svc    service.SettlementService
	export service.ExportService
}

func NewSalesHandler(svc service.SettlementService, export service.ExportService) *SalesHandler {
	return &SalesHandler{svc: svc, export: export}
}

// Settle godoc
// @Summary      Settle a partial sale
// @Description  Atomically deducts stock, records the sale, mints the invoice and appends the audit entry. Not idempotent.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        body body dto.SettleSaleRequest true "Sale details"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) Settle(c *gin.Context) {
	var req dto.SettleSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Settle(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// SettleFull godoc
// @Summary      Settle a full sale
// @Description  Sells the lot's entire remaining stock, always leaving it sold.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        body body dto.SettleFullSaleRequest true "Sale details"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/sales/full [post]
func (h *SalesHandler) SettleFull(c *gin.Context) {
	var req dto.SettleFullSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SettleFull(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List settled sales
// @Description  Paginated sold listing, searchable by buyer or serial, sortable by date or price.
// @Tags         sales
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        search     query string false "Buyer or serial substring"
// @Param        sort_by    query string false "created_at | sold_date | price"
// @Param        sort_order query string false "asc | desc"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 10)"
// @Success      200  {object} dto.SaleListResponse
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Fetch one sale
// @Tags         sales
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id path string true "Sale UUID"
// @Success      200  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update a settled sale
// @Description  Edits price, buyer or date; quantities are immutable (reverse and re-settle instead). Propagates totals into the invoice.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id   path string true "Sale UUID"
// @Param        body body dto.UpdateSaleRequest true "Fields to change"
// @Success      200  {object} dto.SaleResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id} [put]
func (h *SalesHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateSale(c.Request.Context(), middleware.GetTenantID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reverse godoc
// @Summary      Reverse a sale
// @Description  Restores the lot's stock, deletes the invoice and the sale record, and appends a reversal audit entry.
// @Tags         sales
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id path string true "Sale UUID"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) Reverse(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Reverse(c.Request.Context(), middleware.GetTenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export godoc
// @Summary      Export sold items as XLSX
// @Tags         sales
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Success      200
// @Router       /v1/sales/export [get]
func (h *SalesHandler) Export(c *gin.Context) {
	data, err := h.export.SoldItems(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("sold-items-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
