package httpserver

import (
	"net/http"
	"strings"

	"storefront/internal/domain"
	"github.com/gin-gonic/gin"
)

type categoryListResponse struct {
	Count   int               `json:"count"`
	Results []domain.Category `json:"results"`
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, categoryListResponse{Count: len(categories), Results: categories})
}

func (h *handlers) getCategory(c *gin.Context) {
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	if slug == "" {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "slug is required")
		return
	}
	detail, err := h.deps.CategorySvc.Detail(c.Request.Context(), slug)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if detail.Subcategories == nil {
		detail.Subcategories = []domain.Category{}
	}
	if detail.Products == nil {
		detail.Products = []domain.Product{}
	}
	c.JSON(http.StatusOK, detail)
}
