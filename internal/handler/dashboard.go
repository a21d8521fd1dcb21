package handler

import (
	"net/http"

	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct{ svc service.DashboardService }

func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Summary godoc
// @Summary      Inventory and sales dashboard
// @Description  Lot counts by status, sold count, in-stock valuation and recent sales. Read-only.
// @Tags         dashboard
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Success      200  {object} dto.DashboardResponse
// @Router       /v1/dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
