package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	"github.com/gin-gonic/gin"
)

type productListResponse struct {
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	Count   int              `json:"count"`
	Results []domain.Product `json:"results"`
}

func (h *handlers) listProducts(c *gin.Context) {
	limit, err := queryInt(c, "limit", 20)
	if err != nil || limit < 1 || limit > 200 {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "limit must be between 1 and 200")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "offset must be non-negative")
		return
	}
	category, err := queryInt(c, "category", 0)
	if err != nil || category < 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "category must be a positive integer")
		return
	}
	filter := productrepo.ListFilter{
		Query:      strings.TrimSpace(c.Query("q")),
		Status:     domain.ProductStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		CategoryID: int64(category),
		Limit:      limit,
		Offset:     offset,
	}
	switch filter.Status {
	case "", domain.ProductActive, domain.ProductDiscontinued:
	default:
		abortWithError(c, http.StatusBadRequest, "invalid_input", "unknown status")
		return
	}

	products, err := h.deps.ProductSvc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, productListResponse{
		Limit:   limit,
		Offset:  offset,
		Count:   len(products),
		Results: products,
	})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// pathID parses a positive int64 path parameter, writing 400 when it is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_input", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
