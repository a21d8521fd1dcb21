package handler

import (
	"net/http"

	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// GetBySale godoc
// @Summary      Fetch the invoice of a sale
// @Description  Returns the sale's invoice, composing one on the fly for sales that predate eager invoicing.
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id path string true "Sale UUID"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/invoices/sale/{id} [get]
func (h *InvoicesHandler) GetBySale(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetBySale(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Fetch one invoice
// @Tags         invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id path string true "Invoice UUID"
// @Success      200  {object} dto.InvoiceResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/invoices/{id} [get]
func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
