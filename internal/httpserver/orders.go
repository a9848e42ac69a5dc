package httpserver

import (
	"net/http"
	"strings"

	"storefront/internal/domain"
	"github.com/gin-gonic/gin"
)

func (h *handlers) listOrders(c *gin.Context) {
	cust, _ := customerFrom(c.Request.Context())
	status := domain.OrderStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	orders, err := h.deps.OrderSvc.History(c.Request.Context(), cust.ID, status)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "results": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	cust, _ := customerFrom(c.Request.Context())
	order, err := h.deps.OrderSvc.Get(c.Request.Context(), cust.ID, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) cancelOrder(c *gin.Context) {
	cust, _ := customerFrom(c.Request.Context())
	order, err := h.deps.OrderSvc.Cancel(c.Request.Context(), cust.ID, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
