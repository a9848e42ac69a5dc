package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) getCart(c *gin.Context) {
	session, _ := sessionFrom(c.Request.Context())
	c.JSON(http.StatusOK, h.deps.CartSvc.View(c.Request.Context(), session))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "productId is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	session, _ := sessionFrom(c.Request.Context())
	view, err := h.deps.CartSvc.Add(c.Request.Context(), session, req.ProductID, qty)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "quantity is required")
		return
	}
	session, _ := sessionFrom(c.Request.Context())
	view, err := h.deps.CartSvc.Update(c.Request.Context(), session, id, *req.Quantity)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	session, _ := sessionFrom(c.Request.Context())
	c.JSON(http.StatusOK, h.deps.CartSvc.Remove(c.Request.Context(), session, id))
}

func (h *handlers) cartContains(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	session, _ := sessionFrom(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"productId": id,
		"inCart":    h.deps.CartSvc.Contains(c.Request.Context(), session, id),
	})
}

func (h *handlers) clearCart(c *gin.Context) {
	session, _ := sessionFrom(c.Request.Context())
	c.JSON(http.StatusOK, h.deps.CartSvc.Clear(c.Request.Context(), session))
}
