package httpserver

import (
	"net/http"

	"storefront/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

func (h *handlers) checkoutSummary(c *gin.Context) {
	session, _ := sessionFrom(c.Request.Context())
	c.JSON(http.StatusOK, h.deps.CheckoutSvc.Summary(c.Request.Context(), session))
}

func (h *handlers) submitCheckout(c *gin.Context) {
	var req checkout.Details
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "invalid checkout payload")
		return
	}
	cust, _ := customerFrom(c.Request.Context())
	session, _ := sessionFrom(c.Request.Context())

	// Prefill contact fields the form left empty from the profile.
	if req.Email == "" {
		req.Email = cust.Email
	}
	if req.Phone == "" {
		req.Phone = cust.Phone
	}
	if req.AddressLine == "" {
		req.AddressLine = cust.AddressLine
		if req.Ward == "" {
			req.Ward = cust.Ward
		}
	}
	if req.City == "" {
		req.City = cust.City
	}

	order, err := h.deps.CheckoutSvc.Submit(c.Request.Context(), session, cust.ID, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}
