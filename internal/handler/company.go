package handler

import (
	"net/http"

	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct{ svc service.CompanyService }

func NewCompanyHandler(svc service.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Get godoc
// @Summary      Fetch the tenant's billing profile
// @Description  Company name, tax rate and the derived invoice prefix. Defaults apply when no profile exists yet.
// @Tags         company
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Success      200  {object} dto.CompanyResponse
// @Router       /v1/company [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Upsert godoc
// @Summary      Create or update the tenant's billing profile
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        body body dto.CompanyRequest true "Profile fields"
// @Success      200  {object} dto.CompanyResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/company [put]
func (h *CompanyHandler) Upsert(c *gin.Context) {
	var req dto.CompanyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Upsert(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
