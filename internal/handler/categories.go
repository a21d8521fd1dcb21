package handler

import (
	"net/http"

	"github.com/lashkaryadi/kuber-be/internal/dto"
	"github.com/lashkaryadi/kuber-be/internal/middleware"
	"github.com/lashkaryadi/kuber-be/internal/service"

	"github.com/gin-gonic/gin"
)

type CategoriesHandler struct{ svc service.CategoryService }

func NewCategoriesHandler(svc service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc}
}

// Create godoc
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        body body dto.CategoryRequest true "Category name"
// @Success      201  {object} dto.CategoryResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/categories [post]
func (h *CategoriesHandler) Create(c *gin.Context) {
	var req dto.CategoryRequest
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

// List godoc
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Success      200  {array} dto.CategoryResponse
// @Router       /v1/categories [get]
func (h *CategoriesHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a category
// @Tags         categories
// @Param        X-Tenant-ID header string true "Tenant UUID"
// @Param        id path string true "Category UUID"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Router       /v1/categories/{id} [delete]
func (h *CategoriesHandler) Delete(c *gin.Context) {
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
