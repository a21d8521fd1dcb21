package handler

import (
	"net/http"

	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler { return &AuditHandler{svc: svc} }

// List godoc
// @Summary      List audit trail entries
// @Description  Paginated append-only audit trail, newest first, optionally filtered by action.
// @Tags         audit
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        action query string false "SELL_ITEM | UNDO_SOLD | UPDATE_SOLD"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 50)"
// @Success      200  {object} dto.AuditListResponse
// @Router       /v1/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter dto.AuditFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
