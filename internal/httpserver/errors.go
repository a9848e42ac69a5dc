package httpserver

import (
	"errors"
	"net/http"

	cartstore "storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
	"storefront/internal/service/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorResponse struct {
	StatusCode int                        `json:"statusCode"`
	Code       string                     `json:"code"`
	Message    string                     `json:"message"`
	ProductID  *int64                     `json:"productId,omitempty"`
	Max        *int                       `json:"max,omitempty"`
	Requested  *int                       `json:"requested,omitempty"`
	Available  *int                       `json:"available,omitempty"`
	Failures   []checkout.PrecheckFailure `json:"failures,omitempty"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{StatusCode: status, Code: code, Message: message})
}

// writeError maps service errors to HTTP responses.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		outOfStock   *cartstore.OutOfStockError
		insufficient *cartstore.InsufficientStockError
		rejected     *domain.StockRejectedError
		precheck     *checkout.PrecheckError
	)
	switch {
	case errors.As(err, &outOfStock):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
			StatusCode: http.StatusConflict,
			Code:       "out_of_stock",
			Message:    err.Error(),
			ProductID:  &outOfStock.ProductID,
		})
	case errors.As(err, &insufficient):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
			StatusCode: http.StatusConflict,
			Code:       "insufficient_stock",
			Message:    err.Error(),
			ProductID:  &insufficient.ProductID,
			Requested:  &insufficient.Requested,
			Max:        &insufficient.Max,
		})
	case errors.As(err, &rejected):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
			StatusCode: http.StatusConflict,
			Code:       "stock_rejected",
			Message:    err.Error(),
			ProductID:  &rejected.ProductID,
			Requested:  &rejected.Requested,
			Available:  &rejected.Available,
		})
	case errors.As(err, &precheck):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
			StatusCode: http.StatusConflict,
			Code:       "precheck_failed",
			Message:    err.Error(),
			Failures:   precheck.Failures,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		abortWithError(c, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, cartstore.ErrCartClosed):
		abortWithError(c, http.StatusGone, "cart_closed", err.Error())
	case errors.Is(err, cartstore.ErrLineNotFound):
		abortWithError(c, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, cartstore.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrInvalidDetails),
		errors.Is(err, customersvc.ErrInvalidInput),
		errors.Is(err, ordersvc.ErrInvalidStatus):
		abortWithError(c, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		abortWithError(c, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		abortWithError(c, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, customersvc.ErrInvalidCredentials),
		errors.Is(err, customersvc.ErrInvalidToken),
		errors.Is(err, session.ErrInvalidSession):
		abortWithError(c, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		abortWithError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
