package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

const (
	sessionCtxKey  ctxKey = "session"
	customerCtxKey ctxKey = "customer"
	tokenCtxKey    ctxKey = "token"

	// SessionHeader carries the storefront session id that keys the cart.
	SessionHeader = "X-Session-ID"
)

// requestLogger writes one structured line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if s, ok := sessionFrom(c.Request.Context()); ok {
			fields = append(fields, zap.String("session", s))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Info("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

// sessionMiddleware requires a valid X-Session-ID and stores it on the request context.
func sessionMiddleware(sessions sessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(SessionHeader))
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "missing_session", "missing "+SessionHeader+" header")
			return
		}
		id, err := sessions.Validate(c.Request.Context(), raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "invalid_session", "invalid session")
			return
		}
		c.Header(SessionHeader, id)
		ctx := context.WithValue(c.Request.Context(), sessionCtxKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// customerMiddleware requires a bearer access token.
func customerMiddleware(customers customerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		cust, err := customers.LookupByToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		ctx := context.WithValue(c.Request.Context(), customerCtxKey, cust)
		ctx = context.WithValue(ctx, tokenCtxKey, token)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func sessionFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(sessionCtxKey).(string)
	return s, ok && s != ""
}

func customerFrom(ctx context.Context) (*domain.Customer, bool) {
	c, ok := ctx.Value(customerCtxKey).(*domain.Customer)
	return c, ok && c != nil
}
