package httpserver

import (
	"net/http"
	"time"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	TokenType    string           `json:"tokenType"`
	ExpiresIn    int              `json:"expiresIn"`
	Customer     *domain.Customer `json:"customer"`
}

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toTokenResponse(s *customersvc.Session) tokenResponse {
	return tokenResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.ExpiresIn,
		Customer:     s.Customer,
	}
}

func (h *handlers) createSession(c *gin.Context) {
	id, expires, err := h.deps.SessionSvc.Issue(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header(SessionHeader, id)
	c.JSON(http.StatusCreated, sessionResponse{SessionID: id, ExpiresAt: expires.UTC()})
}

// endSession drops the session and its cart.
func (h *handlers) endSession(c *gin.Context) {
	session, _ := sessionFrom(c.Request.Context())
	h.purgeCart(c, session)
	h.deps.SessionSvc.Revoke(c.Request.Context(), session)
	c.Status(http.StatusNoContent)
}

func (h *handlers) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "invalid signup payload")
		return
	}
	cust, err := h.deps.CustomerSvc.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": cust})
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "email and password are required")
		return
	}
	sess, err := h.deps.CustomerSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(sess))
}

func (h *handlers) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid_input", "refreshToken is required")
		return
	}
	sess, err := h.deps.CustomerSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toTokenResponse(sess))
}

// logout ends the shopper's session: the cart is purged, the session id revoked
// and the access token deleted.
func (h *handlers) logout(c *gin.Context) {
	session, _ := sessionFrom(c.Request.Context())
	h.purgeCart(c, session)
	h.deps.SessionSvc.Revoke(c.Request.Context(), session)

	token, _ := c.Request.Context().Value(tokenCtxKey).(string)
	if err := h.deps.CustomerSvc.Logout(c.Request.Context(), token); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	cust, _ := customerFrom(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"customer": cust})
}

// purgeCart failures are logged only; the in-memory cart is already gone.
func (h *handlers) purgeCart(c *gin.Context, session string) {
	if err := h.deps.CartSvc.Purge(c.Request.Context(), session); err != nil {
		h.logger.Warn("cart purge failed", zap.String("session", session), zap.Error(err))
	}
}
