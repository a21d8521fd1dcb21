package handler

import (
	"net/http"

	"github.com/lashkaryadi/kuber-be/internal/apierror"
	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/gin-gonic/gin"
)

type LotsHandler struct{ svc service.LotService }

func NewLotsHandler(svc service.LotService) *LotsHandler { return &LotsHandler{svc: svc} }

// Create godoc
// @Summary      Create a stock lot
// @Description  Registers a new lot with available = total and status pending. Serial numbers are unique per tenant.
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        body body dto.CreateLotRequest true "Lot details"
// @Success      201  {object} dto.LotResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/lots [post]
func (h *LotsHandler) Create(c *gin.Context) {
	var req dto.CreateLotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetTenantID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary      Fetch one lot
// @Tags         lots
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id path string true "Lot UUID"
// @Success      200  {object} dto.LotResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/lots/{id} [get]
func (h *LotsHandler) Get(c *gin.Context) {
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

// List godoc
// @Summary      List lots
// @Description  Returns a paginated lot list filtered by status, category and serial search.
// @Tags         lots
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        search      query  string false "Serial number substring"
// @Param        status      query  string false "pending | in_stock | partially_sold | sold | all"
// @Param        page        query  int    false "Page (default 1)"
// @Param        limit       query  int    false "Rows per page (default 50)"
// @Success      200  {object} dto.LotListResponse
// @Router       /v1/lots [get]
func (h *LotsHandler) List(c *gin.Context) {
	var filter dto.LotFilter
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

// Update godoc
// @Summary      Update a lot
// @Description  Corrects lot fields. Quantity corrections re-derive the status and cannot drop totals below what is already sold.
// @Tags         lots
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id   path string true "Lot UUID"
// @Param        body body dto.UpdateLotRequest true "Fields to change"
// @Success      200  {object} dto.LotResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/lots/{id} [put]
func (h *LotsHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateLotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.GetTenantID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Soft-delete a lot
// @Description  Marks the lot deleted. History referencing it stays intact.
// @Tags         lots
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id path string true "Lot UUID"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Router       /v1/lots/{id} [delete]
func (h *LotsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.GetTenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Import godoc
// @Summary      Bulk import lots from XLSX
// @Description  Parses the uploaded workbook (multipart field "file") and creates one lot per row, reporting per-row outcomes.
// @Tags         lots
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        file formData file true "XLSX workbook"
// @Success      200  {object} dto.ImportResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/lots/import [post]
func (h *LotsHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("multipart field 'file' is required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("could not read uploaded file"))
		return
	}
	defer f.Close()

	resp, err := h.svc.Import(c.Request.Context(), middleware.GetTenantID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
